package platform

import (
	"fmt"
	"strings"
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
	QuerySeparator = "?"
	FragmentMarker = "#"
	PathSeparator  = "/"
	URISeparator   = ":"
)

// NormalizePlaylistID reduces a playlist reference to the provider ID: the
// trailing path segment with any query string or fragment removed. Both
// ".../playlist/abc123?si=xyz" and ".../playlist/abc123" yield "abc123";
// "spotify:playlist:abc123" URIs are accepted as well.
func NormalizePlaylistID(reference string) (string, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", fmt.Errorf("empty playlist reference")
	}

	// Drop query and fragment first so a "/" inside them is never mistaken for a path
	if idx := strings.Index(ref, QuerySeparator); idx >= 0 {
		ref = ref[:idx]
	}
	if idx := strings.Index(ref, FragmentMarker); idx >= 0 {
		ref = ref[:idx]
	}
	ref = strings.TrimRight(ref, PathSeparator)

	if !strings.Contains(ref, PathSeparator) && strings.Count(ref, URISeparator) >= 2 {
		parts := strings.Split(ref, URISeparator)
		ref = parts[len(parts)-1]
	}

	parts := strings.Split(ref, PathSeparator)
	id := strings.TrimSpace(parts[len(parts)-1])
	if id == "" {
		return "", fmt.Errorf("could not extract playlist ID from reference: %s", reference)
	}
	return id, nil
}

// IsYouTubePlaylistURL checks if the reference carries a YouTube playlist parameter
func IsYouTubePlaylistURL(reference string) bool {
	return strings.Contains(reference, PlaylistParam)
}

// ExtractYouTubePlaylistID extracts the playlist ID from a YouTube URL.
// Supported formats:
//   - https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID&start_radio=1
//   - https://www.youtube.com/playlist?list=PLAYLIST_ID
func ExtractYouTubePlaylistID(reference string) (string, error) {
	if !IsYouTubePlaylistURL(reference) {
		return "", fmt.Errorf("URL does not contain playlist parameter")
	}

	parts := strings.SplitN(reference, PlaylistParam, 2)
	playlistID := parts[1]

	if idx := strings.Index(playlistID, ParamSeparator); idx >= 0 {
		playlistID = playlistID[:idx]
	}
	if idx := strings.Index(playlistID, FragmentMarker); idx >= 0 {
		playlistID = playlistID[:idx]
	}
	playlistID = strings.TrimSpace(playlistID)

	if playlistID == "" {
		return "", fmt.Errorf("empty playlist ID")
	}
	return playlistID, nil
}

// ContainsPlaylistLink reports whether free-form chat text holds something
// that looks like a playlist link
func ContainsPlaylistLink(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "open.spotify.com/playlist/") || strings.Contains(lower, "spotify:playlist:") {
		return true
	}
	return (strings.Contains(lower, "youtube.com/") || strings.Contains(lower, "youtu.be/")) && IsYouTubePlaylistURL(text)
}

// ExtractLink returns the first whitespace-separated token of text that looks
// like a URL or a spotify URI, or the trimmed text when none does
func ExtractLink(text string) string {
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") || strings.HasPrefix(field, "spotify:") {
			return field
		}
	}
	return strings.TrimSpace(text)
}
