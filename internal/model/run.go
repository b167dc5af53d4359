package model

import (
	"time"
)

// TrackResult records the outcome of one track in a run
type TrackResult struct {
	Index   int // 1-based position in the track list
	Track   TrackDescriptor
	Outcome TrackOutcome
	Error   string // last error message if any
}

// PipelineRun holds the ephemeral state of one orchestration invocation
type PipelineRun struct {
	ID         string
	Reference  string
	PlaylistID string
	State      RunState
	Tracks     TrackList
	Current    int // 1-based index of the track being processed, 0 before iterating
	Results    []TrackResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewPipelineRun creates a run in the Idle state
func NewPipelineRun(id, reference string) *PipelineRun {
	return &PipelineRun{
		ID:        id,
		Reference: reference,
		State:     RunStateIdle,
		Results:   make([]TrackResult, 0),
		StartedAt: time.Now(),
	}
}

// Transition moves the run to a new state
func (r *PipelineRun) Transition(state RunState) {
	r.State = state
}

// Record appends the outcome for the current track
func (r *PipelineRun) Record(track TrackDescriptor, outcome TrackOutcome, err error) {
	res := TrackResult{
		Index:   r.Current,
		Track:   track,
		Outcome: outcome,
	}
	if err != nil {
		res.Error = err.Error()
	}
	r.Results = append(r.Results, res)
}

// Finish stamps the end time and moves the run into a terminal state
func (r *PipelineRun) Finish(state RunState) {
	r.State = state
	r.FinishedAt = time.Now()
}

// Summary computes counters from the recorded outcomes
func (r *PipelineRun) Summary() RunSummary {
	s := RunSummary{
		RunID:            r.ID,
		PlaylistID:       r.PlaylistID,
		State:            r.State,
		Total:            len(r.Tracks),
		ResolutionFailed: r.State == RunStateResolutionFailed,
		Outcomes:         append([]TrackResult(nil), r.Results...),
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
	}
	for _, res := range r.Results {
		switch res.Outcome {
		case TrackOutcomeDelivered:
			s.Delivered++
		case TrackOutcomeLocateFailed:
			s.LocateFailed++
		case TrackOutcomeDeliveryFailed:
			s.DeliveryFailed++
		}
	}
	s.Cancelled = s.State == RunStateCompleted && len(r.Results) < len(r.Tracks)
	return s
}

// RunSummary is the result of one pipeline run
type RunSummary struct {
	RunID            string
	PlaylistID       string
	State            RunState
	Total            int
	Delivered        int
	LocateFailed     int
	DeliveryFailed   int
	ResolutionFailed bool
	Cancelled        bool // stopped between tracks before the list was exhausted
	Outcomes         []TrackResult
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Attempted returns the number of tracks that were processed
func (s RunSummary) Attempted() int {
	return s.Delivered + s.LocateFailed + s.DeliveryFailed
}

// Failed returns the number of tracks that did not reach the requester
func (s RunSummary) Failed() int {
	return s.LocateFailed + s.DeliveryFailed
}

// Duration returns how long the run took, or 0 if it has not finished
func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
