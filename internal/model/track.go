package model

import (
	"path/filepath"
	"strings"
)

// TrackDescriptor identifies a track by its primary artist and title
type TrackDescriptor struct {
	Artist string
	Title  string
}

// NewTrackDescriptor builds a descriptor with surrounding whitespace trimmed
func NewTrackDescriptor(artist, title string) TrackDescriptor {
	return TrackDescriptor{
		Artist: strings.TrimSpace(artist),
		Title:  strings.TrimSpace(title),
	}
}

// Query returns the media index search query "<artist> - <title>"
func (t TrackDescriptor) Query() string {
	return t.Artist + " - " + t.Title
}

// String returns the display name of the track
func (t TrackDescriptor) String() string {
	return t.Query()
}

// IsZero reports whether the descriptor carries no usable information
func (t TrackDescriptor) IsZero() bool {
	return t.Artist == "" && t.Title == ""
}

// TrackList is an ordered list of tracks; order is delivery order
type TrackList []TrackDescriptor

// Len returns the number of tracks
func (tl TrackList) Len() int {
	return len(tl)
}

// AudioArtifact is a materialized audio file owned by one pipeline iteration
type AudioArtifact struct {
	Path        string
	DisplayName string
}

// NewAudioArtifact creates an artifact whose display name is the file name
// without directory, matching what the requester sees as the audio title
func NewAudioArtifact(path string) AudioArtifact {
	return AudioArtifact{
		Path:        path,
		DisplayName: filepath.Base(path),
	}
}

// Title returns the display name without extension
func (a AudioArtifact) Title() string {
	name := a.DisplayName
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}
