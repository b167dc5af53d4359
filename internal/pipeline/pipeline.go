package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ytget/playlist-bot/internal/download"
	"github.com/ytget/playlist-bot/internal/messages"
	"github.com/ytget/playlist-bot/internal/model"
	"github.com/ytget/playlist-bot/internal/platform"
	"github.com/ytget/playlist-bot/internal/resolver"
)

// DefaultWorkDir is where run directories are created when none is configured
const DefaultWorkDir = "downloads"

// Resolver turns a playlist reference into its ordered track list
type Resolver interface {
	Resolve(ctx context.Context, reference string) (string, model.TrackList, error)
}

// Options configures a Pipeline
type Options struct {
	// WorkDir is the parent of per-run work directories
	WorkDir string
	// Messages renders notices; English when nil
	Messages *messages.Catalog
	// Observer receives run events; ignored when nil
	Observer Observer
}

// Pipeline orchestrates playlist runs. It is safe for concurrent use; every
// run works in its own directory.
type Pipeline struct {
	log          zerolog.Logger
	resolver     Resolver
	materializer download.Materializer
	messages     *messages.Catalog
	observer     Observer
	workDir      string
}

// NewPipeline creates a pipeline over its collaborators
func NewPipeline(log zerolog.Logger, r Resolver, m download.Materializer, opts Options) *Pipeline {
	p := &Pipeline{
		log:          log.With().Str("component", "pipeline").Logger(),
		resolver:     r,
		materializer: m,
		messages:     opts.Messages,
		observer:     opts.Observer,
		workDir:      opts.WorkDir,
	}
	if p.messages == nil {
		p.messages = messages.NewCatalog(messages.DefaultLanguage)
	}
	if p.observer == nil {
		p.observer = NopObserver{}
	}
	if p.workDir == "" {
		p.workDir = DefaultWorkDir
	}
	return p
}

// Run processes one playlist request and always returns a summary. Only a
// resolution failure ends the run before tracks are attempted; every other
// failure is confined to its track. When ctx is cancelled the run stops
// before the next track and the summary is marked Cancelled.
func (p *Pipeline) Run(ctx context.Context, reference string, progress ProgressSink, delivery DeliverySink) model.RunSummary {
	if progress == nil {
		progress = discardProgress
	}
	if delivery == nil {
		delivery = DeliveryFunc(func(context.Context, model.AudioArtifact) error {
			return errors.New("no delivery sink")
		})
	}

	run := model.NewPipelineRun(newRunID(), reference)
	log := p.log.With().Str("run_id", run.ID).Logger()
	p.observer.RunStarted(run.ID)
	log.Info().Str("reference", reference).Msg("run started")

	run.Transition(model.RunStateResolving)
	playlistID, tracks, err := p.resolve(ctx, reference)
	if err != nil {
		log.Warn().Err(err).Msg("playlist resolution failed")
		p.notify(ctx, log, progress, p.messages.Text(messages.KeyResolutionFailed))
		return p.finish(log, run, model.RunStateResolutionFailed)
	}
	run.PlaylistID = playlistID
	run.Tracks = tracks

	run.Transition(model.RunStateIterating)
	p.notify(ctx, log, progress, p.messages.Format(messages.KeyTrackCount, tracks.Len()))

	workDir := filepath.Join(p.workDir, run.ID)
	for i, track := range tracks {
		if ctx.Err() != nil {
			log.Info().Int("remaining", tracks.Len()-i).Msg("run cancelled")
			break
		}
		run.Current = i + 1
		p.processTrack(ctx, log, run, track, workDir, progress, delivery)
		run.Transition(model.RunStateIterating)
	}
	p.removeWorkDir(log, workDir)

	// The requester still hears how the run ended after a cancellation
	final := context.WithoutCancel(ctx)
	if len(run.Results) < tracks.Len() {
		p.notify(final, log, progress, p.messages.Text(messages.KeyCancelled))
	} else {
		p.notify(final, log, progress, p.messages.Text(messages.KeyCompleted))
	}
	return p.finish(log, run, model.RunStateCompleted)
}

func (p *Pipeline) resolve(ctx context.Context, reference string) (playlistID string, tracks model.TrackList, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &resolver.ResolutionError{Reference: reference, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return p.resolver.Resolve(ctx, reference)
}

// processTrack materializes, delivers and removes one track. A panic from any
// collaborator is recovered here and recorded as that track's failure.
func (p *Pipeline) processTrack(ctx context.Context, log zerolog.Logger, run *model.PipelineRun, track model.TrackDescriptor, workDir string, progress ProgressSink, delivery DeliverySink) {
	start := time.Now()
	log = log.With().Int("index", run.Current).Str("track", track.String()).Logger()

	outcome := model.TrackOutcomeLocateFailed
	var trackErr error
	interrupted := false
	defer func() {
		if r := recover(); r != nil {
			trackErr = fmt.Errorf("panic: %v", r)
			log.Error().Err(trackErr).Str("outcome", outcome.String()).Msg("recovered panic while processing track")
		} else if interrupted {
			// Left for the cancellation notice; not a failure of the track
			return
		}
		run.Record(track, outcome, trackErr)
		p.observer.TrackFinished(run.ID, run.Results[len(run.Results)-1], time.Since(start))
	}()

	p.notify(ctx, log, progress, p.messages.Format(messages.KeyTrackStarting, run.Current, run.Tracks.Len(), track.String()))

	artifact, err := p.materializer.Materialize(ctx, track, workDir)
	if err == nil && artifact == nil {
		err = errors.New("materializer returned no artifact")
	}
	if err != nil && ctx.Err() != nil {
		interrupted = true
		log.Info().Err(err).Msg("track interrupted by cancellation")
		return
	}
	if err != nil {
		trackErr = err
		log.Warn().Err(err).Msg("track not materialized")
		p.notify(ctx, log, progress, p.messages.Format(messages.KeyTrackNotFound, track.String()))
		return
	}

	// From here on a panic is a delivery failure
	outcome = model.TrackOutcomeDeliveryFailed
	err = p.withArtifact(ctx, log, run, *artifact, delivery.Deliver)
	if err != nil {
		trackErr = err
		log.Warn().Err(err).Msg("track not delivered")
		p.notify(ctx, log, progress, p.messages.Format(messages.KeyDeliveryFailed, track.String()))
		return
	}

	outcome = model.TrackOutcomeDelivered
	log.Info().Dur("took", time.Since(start)).Msg("track delivered")
}

// withArtifact hands artifact to deliver and then removes it from disk,
// whether deliver succeeds, fails or panics
func (p *Pipeline) withArtifact(ctx context.Context, log zerolog.Logger, run *model.PipelineRun, artifact model.AudioArtifact, deliver func(context.Context, model.AudioArtifact) error) error {
	defer func() {
		run.Transition(model.RunStateCleanup)
		if err := platform.RemoveFile(artifact.Path); err != nil {
			log.Warn().Err(err).Str("path", artifact.Path).Msg("failed to remove artifact")
		}
	}()

	run.Transition(model.RunStateDelivering)
	if err := deliver(ctx, artifact); err != nil {
		return &DeliveryError{Artifact: artifact, Err: err}
	}
	return nil
}

// notify sends a notice; failures and panics of the sink are only logged
func (p *Pipeline) notify(ctx context.Context, log zerolog.Logger, progress ProgressSink, message string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("progress sink panicked")
		}
	}()
	if err := progress.Notify(ctx, message); err != nil {
		log.Warn().Err(err).Msg("failed to send progress notice")
	}
}

// removeWorkDir deletes the run directory. Anything still in it was left
// behind by a failed extraction.
func (p *Pipeline) removeWorkDir(log zerolog.Logger, dir string) {
	removed, err := platform.RemoveDirIfEmpty(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to remove work directory")
		return
	}
	if removed {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		return
	}

	leftovers, _ := platform.ListDownloadedFiles(dir)
	log.Warn().Str("dir", dir).Strs("files", leftovers).Msg("removing leftover files")
	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to remove work directory")
	}
}

func (p *Pipeline) finish(log zerolog.Logger, run *model.PipelineRun, state model.RunState) model.RunSummary {
	run.Finish(state)
	summary := run.Summary()
	p.observer.RunFinished(summary)

	log.Info().
		Str("state", summary.State.String()).
		Str("playlist_id", summary.PlaylistID).
		Int("total", summary.Total).
		Int("delivered", summary.Delivered).
		Int("locate_failed", summary.LocateFailed).
		Int("delivery_failed", summary.DeliveryFailed).
		Bool("cancelled", summary.Cancelled).
		Dur("took", summary.Duration()).
		Msg("run finished")
	return summary
}

// newRunID returns a time-ordered run ID
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
