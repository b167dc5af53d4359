package metrics

import (
	"time"

	"github.com/ytget/playlist-bot/internal/model"
	"github.com/ytget/playlist-bot/internal/pipeline"
)

// Run results
const (
	ResultCompleted        = "completed"
	ResultCancelled        = "cancelled"
	ResultResolutionFailed = "resolution_failed"
)

// PipelineObserver records pipeline events into the package metrics
type PipelineObserver struct{}

var _ pipeline.Observer = PipelineObserver{}

// NewPipelineObserver creates the observer
func NewPipelineObserver() PipelineObserver {
	return PipelineObserver{}
}

// RunStarted counts the run as active
func (PipelineObserver) RunStarted(string) {
	RunsActive.Inc()
}

// TrackFinished records the outcome and duration of one track
func (PipelineObserver) TrackFinished(_ string, result model.TrackResult, duration time.Duration) {
	TracksTotal.WithLabelValues(result.Outcome.String()).Inc()
	TrackDuration.WithLabelValues(result.Outcome.String()).Observe(duration.Seconds())
}

// RunFinished records the run result
func (PipelineObserver) RunFinished(summary model.RunSummary) {
	RunsActive.Dec()
	RunsTotal.WithLabelValues(RunResult(summary)).Inc()
	RunDuration.Observe(summary.Duration().Seconds())
	if !summary.ResolutionFailed {
		PlaylistTracks.Observe(float64(summary.Total))
	}
}

// RunResult maps a summary to its result label
func RunResult(summary model.RunSummary) string {
	switch {
	case summary.ResolutionFailed:
		return ResultResolutionFailed
	case summary.Cancelled:
		return ResultCancelled
	default:
		return ResultCompleted
	}
}
