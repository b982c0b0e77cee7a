package relay

import (
	"fmt"
	"time"
)

// Message is anything the worker hands to the UI goroutine.
type Message interface {
	// RunID identifies the execution session that produced the message.
	RunID() string
}

// Kind classifies an output chunk for display.
type Kind int

const (
	// KindStdout is text from the child's combined stdout/stderr stream.
	KindStdout Kind = iota

	// KindEcho is a user input line echoed back into the terminal panel.
	KindEcho

	// KindError is a spawn or stream failure reported by the worker.
	KindError

	// KindNotice is informational text produced by the editor itself.
	KindNotice
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindStdout:
		return "stdout"
	case KindEcho:
		return "echo"
	case KindError:
		return "error"
	case KindNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// Output is one chunk of terminal text.
// Text usually ends in a newline; a prompt the child left unterminated
// arrives without one.
type Output struct {
	Run  string
	Kind Kind
	Text string
}

// RunID implements Message.
func (o Output) RunID() string { return o.Run }

// Outcome is how a run ended.
type Outcome int

const (
	// OutcomeFinished means the child exited with code 0.
	OutcomeFinished Outcome = iota

	// OutcomeErrored means a non-zero exit, a spawn failure or a stream failure.
	OutcomeErrored

	// OutcomeStopped means the user terminated the run.
	OutcomeStopped
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFinished:
		return "finished"
	case OutcomeErrored:
		return "errored"
	case OutcomeStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StoppedExitCode is reported for runs terminated by the user.
const StoppedExitCode = -1

// Finished is the single completion report for a run.
type Finished struct {
	Run      string
	Outcome  Outcome
	ExitCode int
	Err      error // spawn/stream failure, nil for ordinary exits
	Duration time.Duration
}

// RunID implements Message.
func (f Finished) RunID() string { return f.Run }

// Success reports whether the run completed with exit code 0.
func (f Finished) Success() bool {
	return f.Outcome == OutcomeFinished
}

// Banner returns the line shown in the terminal panel when the run ends.
func (f Finished) Banner() string {
	switch f.Outcome {
	case OutcomeFinished:
		return "Program finished successfully!"
	case OutcomeStopped:
		return "Execution stopped by user"
	default:
		return fmt.Sprintf("Program finished with errors (code: %d)", f.ExitCode)
	}
}
