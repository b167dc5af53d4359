package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ytget/playlist-bot/internal/model"
)

// Timeout constants
const (
	DefaultResolveTimeout = 30 * time.Second
)

// MaxPages bounds pagination so a misbehaving provider cannot loop forever
const MaxPages = 1000

// Resolver fetches playlist track lists from the first matching catalog
type Resolver struct {
	log      zerolog.Logger
	catalogs []Catalog
	timeout  time.Duration
}

// NewResolver creates a resolver over catalogs, tried in order
func NewResolver(log zerolog.Logger, catalogs ...Catalog) *Resolver {
	return &Resolver{
		log:      log.With().Str("component", "resolver").Logger(),
		catalogs: catalogs,
		timeout:  DefaultResolveTimeout,
	}
}

// SetTimeout sets the timeout for a whole resolution
func (r *Resolver) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// Resolve returns the playlist's tracks in provider order. Items with no
// underlying track or no artist are skipped. Every failure, including a
// timeout, is returned as *ResolutionError and no partial list is returned.
func (r *Resolver) Resolve(ctx context.Context, reference string) (string, model.TrackList, error) {
	catalog := r.catalogFor(reference)
	if catalog == nil {
		return "", nil, r.fail(reference, "", ErrNoCatalog)
	}

	playlistID, err := catalog.NormalizeID(reference)
	if err != nil {
		return "", nil, r.fail(reference, catalog.Name(), fmt.Errorf("%w: %v", ErrMalformedReference, err))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tracks := make(model.TrackList, 0)
	skipped := 0
	offset := 0
	for pageNum := 0; ; pageNum++ {
		if pageNum >= MaxPages {
			return playlistID, nil, r.fail(reference, catalog.Name(), fmt.Errorf("%w: more than %d pages", ErrPagination, MaxPages))
		}

		page, err := catalog.PlaylistPage(ctx, playlistID, offset)
		if err != nil {
			return playlistID, nil, r.fail(reference, catalog.Name(), err)
		}
		if page == nil {
			return playlistID, nil, r.fail(reference, catalog.Name(), fmt.Errorf("%w: empty page at offset %d", ErrPagination, offset))
		}

		for _, item := range page.Items {
			track, ok := descriptorFor(item)
			if !ok {
				skipped++
				continue
			}
			tracks = append(tracks, track)
		}

		if !page.HasNext {
			break
		}
		if page.NextOffset <= offset {
			return playlistID, nil, r.fail(reference, catalog.Name(), fmt.Errorf("%w: next offset %d after %d", ErrPagination, page.NextOffset, offset))
		}
		offset = page.NextOffset
	}

	r.log.Info().
		Str("catalog", catalog.Name()).
		Str("playlist_id", playlistID).
		Int("tracks", len(tracks)).
		Int("skipped", skipped).
		Msg("fetched playlist tracks")

	return playlistID, tracks, nil
}

// catalogFor returns the first catalog that understands reference
func (r *Resolver) catalogFor(reference string) Catalog {
	for _, c := range r.catalogs {
		if c != nil && c.Matches(reference) {
			return c
		}
	}
	return nil
}

func (r *Resolver) fail(reference, catalog string, err error) error {
	r.log.Error().Err(err).Str("reference", reference).Str("catalog", catalog).Msg("could not fetch playlist")
	return &ResolutionError{Reference: reference, Catalog: catalog, Err: err}
}

// descriptorFor keeps the primary artist only
func descriptorFor(item Item) (model.TrackDescriptor, bool) {
	if !item.HasTrack || len(item.Artists) == 0 {
		return model.TrackDescriptor{}, false
	}
	track := model.NewTrackDescriptor(item.Artists[0], item.Title)
	if track.Artist == "" || track.Title == "" {
		return model.TrackDescriptor{}, false
	}
	return track, true
}
