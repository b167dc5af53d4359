package resolver

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ResolutionError
var (
	// ErrNoCatalog indicates no configured catalog understands the reference
	ErrNoCatalog = errors.New("no catalog for playlist reference")
	// ErrMalformedReference indicates the reference could not be reduced to an ID
	ErrMalformedReference = errors.New("malformed playlist reference")
	// ErrPagination indicates the provider returned an inconsistent page cursor
	ErrPagination = errors.New("inconsistent playlist pagination")
)

// ResolutionError means the playlist's track list is unavailable. It is fatal
// to a run: no tracks are attempted.
type ResolutionError struct {
	Reference string
	Catalog   string
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Catalog == "" {
		return fmt.Sprintf("could not resolve playlist %q: %v", e.Reference, e.Err)
	}
	return fmt.Sprintf("could not resolve playlist %q via %s: %v", e.Reference, e.Catalog, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsResolutionError reports whether err is or wraps a ResolutionError
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
