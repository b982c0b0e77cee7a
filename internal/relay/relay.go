// Package relay marshals output chunks and completion reports from a run's
// worker goroutine to the goroutine that owns the UI.
//
// Publishing never blocks, so the worker can never stall on a slow UI and
// the UI can publish (Stop reports) from inside its own event handler.
// Messages are delivered in publish order and are never dropped; adjacent
// output chunks may arrive joined into one.
package relay

import (
	"context"

	"github.com/randomizedcoder/go-script-editor/internal/queue"
)

// MaxMergedOutput caps how much text consecutive Output messages are
// folded into while they wait for the UI.
const MaxMergedOutput = 64 * 1024

// Relay is a non-lossy, unbounded message channel.
type Relay struct {
	q *queue.Queue[Message]
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{q: queue.New[Message]()}
}

// Publish enqueues msg for the UI goroutine. An Output that follows an
// undelivered Output of the same run and kind is appended to it, so a
// child printing in a tight loop costs one message per MaxMergedOutput
// bytes instead of one per line.
// Returns false once the relay has been closed.
func (r *Relay) Publish(msg Message) bool {
	if _, ok := msg.(Output); !ok {
		return r.q.Push(msg)
	}
	return r.q.PushMerge(msg, mergeOutput)
}

// mergeOutput folds next into tail when both are Output of the same run
// and kind and the result stays within MaxMergedOutput.
func mergeOutput(tail, next Message) (Message, bool) {
	t, ok := tail.(Output)
	if !ok {
		return nil, false
	}
	n := next.(Output)
	if t.Run != n.Run || t.Kind != n.Kind || len(t.Text)+len(n.Text) > MaxMergedOutput {
		return nil, false
	}
	t.Text += n.Text
	return t, true
}

// Next blocks until a message is available, ctx is done, or the relay is
// closed and empty (queue.ErrClosed).
func (r *Relay) Next(ctx context.Context) (Message, error) {
	return r.q.Pop(ctx)
}

// TryNext returns a pending message without blocking.
func (r *Relay) TryNext() (Message, bool) {
	return r.q.TryPop()
}

// Drain removes and returns every pending message without blocking.
func (r *Relay) Drain() []Message {
	return r.q.Drain()
}

// Pending returns the number of undelivered messages.
func (r *Relay) Pending() int {
	return r.q.Len()
}

// Close stops accepting messages. Pending messages remain readable.
func (r *Relay) Close() {
	r.q.Close()
}
