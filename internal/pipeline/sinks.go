package pipeline

import (
	"context"

	"github.com/ytget/playlist-bot/internal/model"
)

// ProgressSink receives human-readable progress notices. Errors are logged
// and otherwise ignored.
type ProgressSink interface {
	Notify(ctx context.Context, message string) error
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(ctx context.Context, message string) error

// Notify calls f
func (f ProgressFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// DeliverySink hands an artifact to the requester. The artifact is removed
// from disk after Deliver returns, so implementations must finish reading it
// before returning.
type DeliverySink interface {
	Deliver(ctx context.Context, artifact model.AudioArtifact) error
}

// DeliveryFunc adapts a function to DeliverySink
type DeliveryFunc func(ctx context.Context, artifact model.AudioArtifact) error

// Deliver calls f
func (f DeliveryFunc) Deliver(ctx context.Context, artifact model.AudioArtifact) error {
	return f(ctx, artifact)
}

var discardProgress = ProgressFunc(func(context.Context, string) error { return nil })
