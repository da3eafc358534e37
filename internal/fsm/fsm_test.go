package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionSubmitPath(t *testing.T) {
	s := StateIdle
	for _, step := range []struct {
		event Event
		want  State
	}{
		{EventStart, StateRecording},
		{EventStop, StateStopping},
		{EventFinalize, StateSubmitting},
		{EventSubmitted, StateIdle},
	} {
		next, err := Transition(s, step.event)
		require.NoError(t, err)
		require.Equal(t, step.want, next)
		s = next
	}
}

func TestTransitionDiscardReturnsIdle(t *testing.T) {
	next, err := Transition(StateStopping, EventDiscard)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	for _, state := range []State{StateIdle, StateRecording, StateStopping, StateSubmitting, StateError} {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "idle stop", state: StateIdle, event: EventStop},
		{name: "idle finalize", state: StateIdle, event: EventFinalize},
		{name: "recording start", state: StateRecording, event: EventStart},
		{name: "recording submitted", state: StateRecording, event: EventSubmitted},
		{name: "recording discard", state: StateRecording, event: EventDiscard},
		{name: "stopping stop", state: StateStopping, event: EventStop},
		{name: "submitting stop", state: StateSubmitting, event: EventStop},
		{name: "submitting start", state: StateSubmitting, event: EventStart},
		{name: "error start", state: StateError, event: EventStart},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.state, next)
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid transition")
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventFail)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestBusy(t *testing.T) {
	require.False(t, Busy(StateIdle))
	require.False(t, Busy(StateError))
	require.True(t, Busy(StateRecording))
	require.True(t, Busy(StateStopping))
	require.True(t, Busy(StateSubmitting))
}
