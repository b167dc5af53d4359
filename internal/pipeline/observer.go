package pipeline

import (
	"time"

	"github.com/ytget/playlist-bot/internal/model"
)

// Observer receives run and track events. Implementations must be safe for
// concurrent use: runs for different chats share one observer.
type Observer interface {
	RunStarted(runID string)
	TrackFinished(runID string, result model.TrackResult, duration time.Duration)
	RunFinished(summary model.RunSummary)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) RunStarted(string) {}
func (NopObserver) TrackFinished(string, model.TrackResult, time.Duration) {}
func (NopObserver) RunFinished(model.RunSummary) {}
