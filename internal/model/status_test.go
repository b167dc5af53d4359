package model

import "testing"

func TestRunState_String(t *testing.T) {
	tests := []struct {
		state    RunState
		expected string
	}{
		{RunStateIdle, "Idle"},
		{RunStateResolving, "Resolving"},
		{RunStateResolutionFailed, "ResolutionFailed"},
		{RunStateIterating, "Iterating"},
		{RunStateDelivering, "Delivering"},
		{RunStateCleanup, "Cleanup"},
		{RunStateCompleted, "Completed"},
	}

	for _, test := range tests {
		if result := test.state.String(); result != test.expected {
			t.Errorf("RunState.String() = %s, expected %s", result, test.expected)
		}
	}
}

func TestRunState_IsActive(t *testing.T) {
	tests := []struct {
		state    RunState
		expected bool
	}{
		{RunStateIdle, false},
		{RunStateResolving, true},
		{RunStateResolutionFailed, false},
		{RunStateIterating, true},
		{RunStateDelivering, true},
		{RunStateCleanup, true},
		{RunStateCompleted, false},
	}

	for _, test := range tests {
		if result := test.state.IsActive(); result != test.expected {
			t.Errorf("RunState(%s).IsActive() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestRunState_IsFinished(t *testing.T) {
	tests := []struct {
		state    RunState
		expected bool
	}{
		{RunStateIdle, false},
		{RunStateResolving, false},
		{RunStateResolutionFailed, true},
		{RunStateIterating, false},
		{RunStateCompleted, true},
	}

	for _, test := range tests {
		if result := test.state.IsFinished(); result != test.expected {
			t.Errorf("RunState(%s).IsFinished() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestTrackOutcome_IsFailure(t *testing.T) {
	if TrackOutcomeDelivered.IsFailure() {
		t.Error("delivered should not be a failure")
	}
	if !TrackOutcomeLocateFailed.IsFailure() {
		t.Error("locate_failed should be a failure")
	}
	if !TrackOutcomeDeliveryFailed.IsFailure() {
		t.Error("delivery_failed should be a failure")
	}
}
