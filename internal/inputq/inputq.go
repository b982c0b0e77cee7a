// Package inputq carries user-typed input lines from the UI goroutine to the
// worker goroutine that owns the child's stdin.
package inputq

import (
	"sync/atomic"

	"github.com/randomizedcoder/go-script-editor/internal/queue"
)

// Channel is the per-run input FIFO.
// Push is called from the UI goroutine, Next from the worker.
type Channel struct {
	q *queue.Queue[string]

	pushed    atomic.Int64
	delivered atomic.Int64
}

// New creates an empty input channel.
func New() *Channel {
	return &Channel{q: queue.New[string]()}
}

// Push enqueues one line (without trailing newline).
// Returns false if the channel was closed because the run ended.
func (c *Channel) Push(line string) bool {
	if !c.q.Push(line) {
		return false
	}
	c.pushed.Add(1)
	return true
}

// Next returns the oldest pending line, or ok=false if none is pending.
func (c *Channel) Next() (line string, ok bool) {
	line, ok = c.q.TryPop()
	if ok {
		c.delivered.Add(1)
	}
	return line, ok
}

// Ready signals that lines may be pending. See queue.Queue.Ready.
func (c *Channel) Ready() <-chan struct{} {
	return c.q.Ready()
}

// Pending returns the number of lines not yet taken by the worker.
func (c *Channel) Pending() int {
	return c.q.Len()
}

// Close rejects further input and discards nothing already queued.
func (c *Channel) Close() {
	c.q.Close()
}

// Stats returns how many lines were pushed and how many were taken.
func (c *Channel) Stats() (pushed, delivered int64) {
	return c.pushed.Load(), c.delivered.Load()
}
