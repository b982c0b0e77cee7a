package process

import "fmt"

// SpawnError reports that the interpreter could not be launched.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// StreamError reports a read or write failure while the child was running.
type StreamError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s child stream: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
