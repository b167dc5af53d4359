package resolver

import "context"

// Item is one entry of a catalog playlist page
type Item struct {
	// HasTrack is false for entries without an underlying track
	// (removed, local-only or region-blocked items).
	HasTrack bool
	Title    string
	// Artists in provider order; the first one is the primary artist.
	Artists []string
}

// Page is one page of playlist items in provider order
type Page struct {
	Items      []Item
	HasNext    bool
	NextOffset int
}

// Catalog is a metadata provider able to list the items of a playlist
type Catalog interface {
	// Name identifies the provider in logs
	Name() string
	// Matches reports whether the catalog understands this reference
	Matches(reference string) bool
	// NormalizeID reduces a reference to the provider's playlist ID
	NormalizeID(reference string) (string, error)
	// PlaylistPage fetches the page of items starting at offset
	PlaylistPage(ctx context.Context, playlistID string, offset int) (*Page, error)
}
