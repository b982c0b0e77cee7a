// Package execution runs the editor buffer as a child interpreter process,
// one run at a time, and reports its output and completion on a relay.
package execution

import "github.com/randomizedcoder/go-script-editor/internal/relay"

// State represents the controller's execution state.
type State int

const (
	// StateIdle means no run is active and Run is accepted.
	StateIdle State = iota

	// StateRunning means a session owns a worker goroutine.
	StateRunning

	// StateFinished is reported briefly when a run exits with code 0.
	StateFinished

	// StateStopped is reported briefly when the user stops a run.
	StateStopped

	// StateErrored is reported briefly when a run exits non-zero or fails.
	StateErrored
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateStopped:
		return "stopped"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// IsActive returns true while a run is in progress.
func (s State) IsActive() bool {
	return s == StateRunning
}

// IsTerminal returns true for the states a run passes through on its way
// back to idle.
func (s State) IsTerminal() bool {
	return s == StateFinished || s == StateStopped || s == StateErrored
}

func stateFor(o relay.Outcome) State {
	switch o {
	case relay.OutcomeFinished:
		return StateFinished
	case relay.OutcomeStopped:
		return StateStopped
	default:
		return StateErrored
	}
}
