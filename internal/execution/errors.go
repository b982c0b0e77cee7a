package execution

import "errors"

var (
	// ErrBusy is returned by Run while another run is active.
	ErrBusy = errors.New("a program is already running")

	// ErrNotRunning is returned by SendInput and Stop when no run is active.
	ErrNotRunning = errors.New("no program is running")

	// ErrEmptySource is returned by Run for an empty or whitespace-only buffer.
	ErrEmptySource = errors.New("no code to run")

	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("controller closed")
)
