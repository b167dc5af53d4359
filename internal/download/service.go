package download

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/ytget/playlist-bot/internal/model"
	"github.com/ytget/playlist-bot/internal/platform"
)

// Audio target
const (
	TargetCodec   = "mp3"
	TargetQuality = 192 // kbps
)

// Defaults for a single materialization
const (
	DefaultTimeout    = 5 * time.Minute
	DefaultMaxRetries = 1
	DefaultBackoff    = 2 * time.Second
)

// Service handles download operations
type Service struct {
	log        zerolog.Logger
	index      MediaIndex
	timeout    time.Duration
	maxRetries uint64
	backoff    time.Duration
}

var _ Materializer = (*Service)(nil)

// NewService creates a new download service over index
func NewService(log zerolog.Logger, index MediaIndex) *Service {
	return &Service{
		log:        log.With().Str("component", "download").Logger(),
		index:      index,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
	}
}

// SetTimeout sets the timeout for one materialization, retries included
func (s *Service) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// SetRetryPolicy sets how many times a failed extraction is retried and the
// constant delay between attempts
func (s *Service) SetRetryPolicy(maxRetries int, backoff time.Duration) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = time.Millisecond
	}
	s.maxRetries = uint64(maxRetries)
	s.backoff = backoff
}

// Materialize downloads the top match for track into workDir and returns the
// resulting mp3. workDir is created when missing and never removed here.
func (s *Service) Materialize(ctx context.Context, track model.TrackDescriptor, workDir string) (*model.AudioArtifact, error) {
	if track.IsZero() {
		return nil, s.fail(track, "empty track descriptor", nil)
	}
	if err := platform.CreateDirectoryIfNotExists(workDir); err != nil {
		return nil, s.fail(track, "work directory unavailable", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	extraction, err := s.fetchWithRetry(ctx, track.Query(), workDir)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			return nil, s.fail(track, "no search result", err)
		}
		return nil, s.fail(track, "extraction failed", err)
	}
	if extraction == nil || extraction.Filename == "" {
		return nil, s.fail(track, "index reported no output file", nil)
	}

	path := platform.ReplaceExtension(extraction.Filename, TargetCodec)
	if !platform.FileExists(path) {
		return nil, s.fail(track, "output file missing: "+path, nil)
	}

	artifact := model.NewAudioArtifact(path)
	s.log.Info().
		Str("track", track.String()).
		Str("title", extraction.Title).
		Str("path", path).
		Msg("materialized track")
	return &artifact, nil
}

// fetchWithRetry attempts the extraction with retry logic
func (s *Service) fetchWithRetry(ctx context.Context, query, dir string) (*Extraction, error) {
	var result *Extraction
	attempt := 0

	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewConstant(s.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.log.Debug().Str("query", query).Int("attempt", attempt).Msg("retrying extraction")
		}

		ext, err := s.index.Fetch(ctx, query, dir)
		if err == nil {
			result = ext
			return nil
		}

		s.log.Warn().Err(err).Str("query", query).Int("attempt", attempt).Msg("extraction attempt failed")

		// A missing match will not appear on retry, and a dead context ends the loop
		if errors.Is(err, ErrNoMatch) || ctx.Err() != nil {
			return err
		}
		return retry.RetryableError(err)
	})
	return result, err
}

func (s *Service) fail(track model.TrackDescriptor, reason string, err error) error {
	merr := newMaterializationError(track, reason, err)
	s.log.Warn().Str("track", track.String()).Str("reason", merr.Reason()).Msg("could not materialize track")
	return merr
}

