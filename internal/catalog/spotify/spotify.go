// Package spotify implements the playlist catalog on top of the Spotify Web
// API, authenticated with the app-level client-credentials flow.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ytget/playlist-bot/internal/platform"
	"github.com/ytget/playlist-bot/internal/resolver"
)

// CatalogName is reported in logs and resolution errors
const CatalogName = "spotify"

// DefaultPageSize is the largest page the playlist items endpoint serves
const DefaultPageSize = 100

// Credentials are the app credentials issued by the Spotify developer dashboard
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Valid reports whether both halves of the credentials are present
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Option customizes a Catalog
type Option func(*options)

type options struct {
	tokenURL   string
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

// WithTokenURL overrides the OAuth token endpoint
func WithTokenURL(url string) Option {
	return func(o *options) { o.tokenURL = url }
}

// WithBaseURL overrides the Web API base URL (must end with "/")
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithPageSize sets how many items are requested per page
func WithPageSize(size int) Option {
	return func(o *options) { o.pageSize = size }
}

// WithHTTPClient sets the transport used for token and API calls
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Catalog lists Spotify playlist items
type Catalog struct {
	log      zerolog.Logger
	client   *spotify.Client
	pageSize int
}

var _ resolver.Catalog = (*Catalog)(nil)

// New creates a catalog. The access token is fetched lazily on the first
// request and refreshed by the oauth2 transport when it expires.
func New(ctx context.Context, log zerolog.Logger, creds Credentials, opts ...Option) (*Catalog, error) {
	if !creds.Valid() {
		return nil, fmt.Errorf("spotify client id and secret are required")
	}

	o := options{
		tokenURL: spotifyauth.TokenURL,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize <= 0 || o.pageSize > DefaultPageSize {
		o.pageSize = DefaultPageSize
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	config := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     o.tokenURL,
	}

	var clientOpts []spotify.ClientOption
	if o.baseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(o.baseURL))
	}

	return &Catalog{
		log:      log.With().Str("component", "catalog").Str("catalog", CatalogName).Logger(),
		client:   spotify.New(config.Client(ctx), clientOpts...),
		pageSize: o.pageSize,
	}, nil
}

// Name returns the catalog name
func (c *Catalog) Name() string {
	return CatalogName
}

// Matches accepts everything that is not a YouTube playlist link
func (c *Catalog) Matches(reference string) bool {
	return !platform.IsYouTubePlaylistURL(reference)
}

// NormalizeID reduces a share link, URI or bare ID to a base62 playlist ID
func (c *Catalog) NormalizeID(reference string) (string, error) {
	id, err := platform.NormalizePlaylistID(reference)
	if err != nil {
		return "", err
	}
	if !isBase62(id) {
		return "", fmt.Errorf("invalid spotify playlist id: %q", id)
	}
	return id, nil
}

// PlaylistPage fetches one page of playlist items starting at offset
func (c *Catalog) PlaylistPage(ctx context.Context, playlistID string, offset int) (*resolver.Page, error) {
	page, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
		spotify.Limit(c.pageSize),
		spotify.Offset(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	items := make([]resolver.Item, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, toItem(it))
	}

	c.log.Debug().
		Str("playlist_id", playlistID).
		Int("offset", offset).
		Int("items", len(items)).
		Int("total", int(page.Total)).
		Msg("fetched playlist page")

	return &resolver.Page{
		Items:      items,
		HasNext:    page.Next != "",
		NextOffset: offset + len(page.Items),
	}, nil
}

// toItem maps a playlist entry; episodes and removed tracks carry no track
func toItem(it spotify.PlaylistItem) resolver.Item {
	track := it.Track.Track
	if track == nil {
		return resolver.Item{}
	}

	artists := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, a.Name)
	}
	return resolver.Item{
		HasTrack: true,
		Title:    track.Name,
		Artists:  artists,
	}
}

func isBase62(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
