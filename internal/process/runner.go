// Package process runs the user's script as a child interpreter process.
//
// A Handle owns exactly one child. The child's stdout and stderr share one
// pipe so the combined stream keeps the order the child wrote it in; stdin
// is a separate pipe fed one line at a time.
package process

import (
	"context"
)

// Runner starts child processes for source files.
// This interface keeps the execution controller interpreter-agnostic.
type Runner interface {
	// Start spawns the interpreter against sourcePath.
	// Errors are *SpawnError.
	Start(ctx context.Context, sourcePath string) (Handle, error)

	// Name returns a human-readable name for the interpreter.
	Name() string

	// CommandString returns the shell-style command line for sourcePath.
	CommandString(sourcePath string) string
}

// Handle is a running (or exited) child process.
// All methods are safe for concurrent use.
type Handle interface {
	// ReadLine blocks for the next chunk of combined output.
	// Returns io.EOF once the stream is closed and fully drained.
	ReadLine() (string, error)

	// Lines exposes the same chunk stream for select-based waiting.
	// The channel is closed at EOF.
	Lines() <-chan string

	// WriteLine writes text plus a newline to the child's stdin.
	// Writing to an exited child is a silent no-op.
	WriteLine(text string) error

	// Poll reports the exit code without blocking.
	Poll() (exitCode int, exited bool)

	// Done is closed once the child has exited.
	Done() <-chan struct{}

	// Terminate asks the child's process group to exit and returns at once.
	Terminate() error

	// Err returns the read failure that ended the stream early, if any.
	Err() error

	// Pid returns the child's process ID.
	Pid() int

	// Close releases the parent's pipe ends. Safe to call multiple times.
	Close() error
}
