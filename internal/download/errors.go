package download

import (
	"context"
	"errors"
	"fmt"

	"github.com/ytget/playlist-bot/internal/model"
)

// MaterializationError means no usable audio file was produced for a track.
// Callers see a single kind of failure; Reason is kept for logs.
type MaterializationError struct {
	Track  model.TrackDescriptor
	reason string
	err    error
}

func newMaterializationError(track model.TrackDescriptor, reason string, err error) *MaterializationError {
	return &MaterializationError{Track: track, reason: reason, err: err}
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("could not find or download %q", e.Track.String())
}

// Unwrap exposes a cancellation or timeout of the attempt and nothing else
func (e *MaterializationError) Unwrap() error {
	switch {
	case errors.Is(e.err, context.Canceled):
		return context.Canceled
	case errors.Is(e.err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	}
	return nil
}

// Reason returns the internal cause description
func (e *MaterializationError) Reason() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.reason, e.err)
	}
	return e.reason
}
