package download

import (
	"context"
	"errors"

	"github.com/ytget/playlist-bot/internal/model"
)

// ErrNoMatch is returned by a MediaIndex when the search yields nothing
var ErrNoMatch = errors.New("no match for query")

// Extraction describes the item a MediaIndex downloaded
type Extraction struct {
	// Title is the source item's title
	Title string
	// Filename is the path the index wrote before audio post-processing;
	// its extension may still be the container's
	Filename string
}

// MediaIndex searches for the best match of query and extracts its audio
// into dir
type MediaIndex interface {
	Fetch(ctx context.Context, query, dir string) (*Extraction, error)
}

// Materializer defines the interface for the download service
type Materializer interface {
	Materialize(ctx context.Context, track model.TrackDescriptor, workDir string) (*model.AudioArtifact, error)
}
