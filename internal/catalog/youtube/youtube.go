// Package youtube implements the playlist catalog for YouTube playlists.
// Entries whose titles follow the "Artist - Title" convention become tracks;
// everything else is reported as an entry without a track.
package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/ytget/ytdlp/v2"

	"github.com/ytget/playlist-bot/internal/platform"
	"github.com/ytget/playlist-bot/internal/resolver"
)

// CatalogName is reported in logs and resolution errors
const CatalogName = "youtube"

// DefaultListTimeout bounds a single playlist listing
const DefaultListTimeout = 60 * time.Second

// TitleSeparator splits "Artist - Title" video titles
const TitleSeparator = " - "

// Entry is one playlist video
type Entry struct {
	VideoID string
	Title   string
}

// ListFunc lists every entry of a playlist
type ListFunc func(ctx context.Context, playlistID string) ([]Entry, error)

// Catalog lists YouTube playlists in a single page
type Catalog struct {
	log     zerolog.Logger
	list    ListFunc
	timeout time.Duration
}

var _ resolver.Catalog = (*Catalog)(nil)

// New creates a catalog backed by the ytdlp playlist client
func New(log zerolog.Logger) *Catalog {
	return NewWithLister(log, listWithYTDLP)
}

// NewWithLister creates a catalog backed by a custom lister
func NewWithLister(log zerolog.Logger, list ListFunc) *Catalog {
	return &Catalog{
		log:     log.With().Str("component", "catalog").Str("catalog", CatalogName).Logger(),
		list:    list,
		timeout: DefaultListTimeout,
	}
}

// SetTimeout sets the timeout for listing operations
func (c *Catalog) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Name returns the catalog name
func (c *Catalog) Name() string {
	return CatalogName
}

// Matches accepts links carrying a list= parameter
func (c *Catalog) Matches(reference string) bool {
	return platform.IsYouTubePlaylistURL(reference)
}

// NormalizeID extracts the list= parameter
func (c *Catalog) NormalizeID(reference string) (string, error) {
	return platform.ExtractYouTubePlaylistID(reference)
}

// PlaylistPage returns the whole playlist as one page; later offsets are empty
func (c *Catalog) PlaylistPage(ctx context.Context, playlistID string, offset int) (*resolver.Page, error) {
	if offset > 0 {
		return &resolver.Page{}, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	entries, err := c.list(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	items := make([]resolver.Item, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		item := SplitTitle(e.Title)
		if !item.HasTrack {
			skipped++
		}
		items = append(items, item)
	}

	c.log.Debug().
		Str("playlist_id", playlistID).
		Int("items", len(items)).
		Int("untitled", skipped).
		Msg("listed playlist")

	return &resolver.Page{Items: items}, nil
}

// SplitTitle maps "Artist - Title" to a track item. Titles without the
// separator, or with an empty half, yield an item without a track.
func SplitTitle(title string) resolver.Item {
	artist, name, ok := strings.Cut(title, TitleSeparator)
	artist = strings.TrimSpace(artist)
	name = strings.TrimSpace(name)
	if !ok || artist == "" || name == "" {
		return resolver.Item{}
	}
	return resolver.Item{
		HasTrack: true,
		Title:    name,
		Artists:  []string{artist},
	}
}

func listWithYTDLP(ctx context.Context, playlistID string) ([]Entry, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, Entry{VideoID: it.VideoID, Title: it.Title})
	}
	return entries, nil
}
