// Package fsm is the capture session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateStopping   State = "stopping"
	StateSubmitting State = "submitting"
	StateError      State = "error"
)

const (
	EventStart     Event = "start"
	EventStop      Event = "stop"
	EventFinalize  Event = "finalize"
	EventDiscard   Event = "discard"
	EventSubmitted Event = "submitted"
	EventFail      Event = "fail"
	EventReset     Event = "reset"
)

// transitions is keyed by source state; EventFail is accepted from every state.
var transitions = map[State]map[Event]State{
	StateIdle:       {EventStart: StateRecording},
	StateRecording:  {EventStop: StateStopping},
	StateStopping:   {EventFinalize: StateSubmitting, EventDiscard: StateIdle},
	StateSubmitting: {EventSubmitted: StateIdle},
	StateError:      {EventReset: StateIdle},
}

// Transition returns the state reached from current on event.
func Transition(current State, event Event) (State, error) {
	edges, known := transitions[current]
	if !known {
		return current, fmt.Errorf("unknown state %q", current)
	}
	if event == EventFail {
		return StateError, nil
	}
	if next, ok := edges[event]; ok {
		return next, nil
	}
	return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, event)
}

// Busy reports whether a capture attempt is in flight in state s.
func Busy(s State) bool {
	switch s {
	case StateRecording, StateStopping, StateSubmitting:
		return true
	default:
		return false
	}
}
