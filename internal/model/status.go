package model

// RunState represents the state of a pipeline run
type RunState string

const (
	// RunStateIdle means the run has been created but not started
	RunStateIdle RunState = "Idle"

	// RunStateResolving means the playlist track list is being fetched
	RunStateResolving RunState = "Resolving"

	// RunStateResolutionFailed means the track list could not be fetched
	RunStateResolutionFailed RunState = "ResolutionFailed"

	// RunStateIterating means tracks are being processed one by one
	RunStateIterating RunState = "Iterating"

	// RunStateDelivering means an artifact is being handed to the delivery sink
	RunStateDelivering RunState = "Delivering"

	// RunStateCleanup means an artifact is being removed after its delivery attempt
	RunStateCleanup RunState = "Cleanup"

	// RunStateCompleted means every track has been attempted
	RunStateCompleted RunState = "Completed"
)

// String returns the string representation of RunState
func (rs RunState) String() string {
	return string(rs)
}

// IsActive returns true if the run is still doing work
func (rs RunState) IsActive() bool {
	return rs == RunStateResolving || rs == RunStateIterating || rs == RunStateDelivering || rs == RunStateCleanup
}

// IsFinished returns true if the run reached a terminal state
func (rs RunState) IsFinished() bool {
	return rs == RunStateCompleted || rs == RunStateResolutionFailed
}

// TrackOutcome represents what happened to a single track of a run
type TrackOutcome string

const (
	// TrackOutcomeDelivered means the artifact was handed to the requester
	TrackOutcomeDelivered TrackOutcome = "delivered"

	// TrackOutcomeLocateFailed means no artifact could be found or downloaded
	TrackOutcomeLocateFailed TrackOutcome = "locate_failed"

	// TrackOutcomeDeliveryFailed means the artifact existed but delivery was rejected
	TrackOutcomeDeliveryFailed TrackOutcome = "delivery_failed"
)

// String returns the string representation of TrackOutcome
func (to TrackOutcome) String() string {
	return string(to)
}

// IsFailure returns true for every outcome other than delivered
func (to TrackOutcome) IsFailure() bool {
	return to != TrackOutcomeDelivered
}
