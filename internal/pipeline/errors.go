package pipeline

import (
	"fmt"

	"github.com/ytget/playlist-bot/internal/model"
)

// DeliveryError means an existing artifact was rejected by the delivery sink
type DeliveryError struct {
	Artifact model.AudioArtifact
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %s: %v", e.Artifact.DisplayName, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
