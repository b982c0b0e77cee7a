// Package queue provides an unbounded FIFO shared between goroutines.
//
// Push never blocks and TryPop never blocks; an empty queue is a normal
// result. Consumers that want to sleep until work arrives select on Ready(),
// which holds at most one pending signal.
package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded, mutex-guarded FIFO.
// The zero value is not usable; call New.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		ready: make(chan struct{}, 1),
	}
}

// Push appends v to the tail of the queue.
// Returns false if the queue has been closed (v is discarded).
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.signal()
	return true
}

// PushMerge is Push, except that v may be folded into the current tail.
// merge is called under the queue lock with the tail and v; when it
// returns ok the tail is replaced by the merged value and no new item is
// added. Returns false if the queue has been closed.
func (q *Queue[T]) PushMerge(v T, merge func(tail, v T) (T, bool)) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if n := len(q.items); n > 0 {
		if merged, ok := merge(q.items[n-1], v); ok {
			q.items[n-1] = merged
			q.mu.Unlock()
			q.signal()
			return true
		}
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.signal()
	return true
}

// TryPop removes and returns the head of the queue.
// ok is false when the queue is empty.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return v, false
	}
	v = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// Let the backing array go instead of growing forever.
		q.items = nil
	}
	return v, true
}

// Drain removes and returns every queued item in FIFO order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Pop blocks until an item is available, the queue is closed and empty,
// or ctx is done.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryPop(); ok {
			return v, nil
		}
		if q.Closed() {
			var zero T
			return zero, ErrClosed
		}
		select {
		case <-q.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Ready returns a channel that receives a value after a Push (or Close).
// Signals coalesce: one receive may stand for many pushes, so consumers
// must drain with TryPop until it reports empty.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further pushes. Items already queued can still be popped.
// Safe to call multiple times.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// signal performs a non-blocking send on the ready channel.
func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
