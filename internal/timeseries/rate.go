// Package timeseries tracks how fast a running program produces output,
// as rolling averages over short windows.
//
// Add is lock-free and may be called from any goroutine; Sample and Stats
// take a lock on the sample ring.
package timeseries

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// ringSize is the number of samples kept (one minute at one per second).
	ringSize = 60

	// Windows reported by Stats.
	windowShort = 1 * time.Second
	windowLong  = 10 * time.Second
)

// Clock interface for testing with deterministic time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type sample struct {
	at    time.Time
	bytes int64
}

// RateTracker accumulates output bytes and answers "how fast lately".
//
//	tracker := NewRateTracker()
//	tracker.Add(len(chunk)) // per output chunk
//	tracker.Sample()        // once per UI tick
//	rate := tracker.Stats().Short
type RateTracker struct {
	total atomic.Int64

	mu      sync.RWMutex
	samples []sample // ring, oldest at next once full
	next    int
	start   time.Time
	clock   Clock
}

// RateStats is a snapshot of the tracker, in bytes per second.
type RateStats struct {
	Total   int64
	Short   float64 // last second
	Long    float64 // last ten seconds
	Overall float64 // since the last Reset
}

// NewRateTracker creates a tracker on the wall clock.
func NewRateTracker() *RateTracker {
	return NewRateTrackerWithClock(realClock{})
}

// NewRateTrackerWithClock creates a tracker with a custom clock for testing.
func NewRateTrackerWithClock(clock Clock) *RateTracker {
	t := &RateTracker{
		samples: make([]sample, 0, ringSize),
		clock:   clock,
	}
	t.Reset()
	return t
}

// Add counts n output bytes. Non-positive n is ignored.
func (t *RateTracker) Add(n int) {
	if n > 0 {
		t.total.Add(int64(n))
	}
}

// Sample records the running total at the current time.
func (t *RateTracker) Sample() {
	s := sample{at: t.clock.Now(), bytes: t.total.Load()}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) < ringSize {
		t.samples = append(t.samples, s)
		return
	}
	t.samples[t.next] = s
	t.next = (t.next + 1) % ringSize
}

// Stats computes the rolling rates.
func (t *RateTracker) Stats() RateStats {
	now := t.clock.Now()
	total := t.total.Load()

	t.mu.RLock()
	defer t.mu.RUnlock()

	st := RateStats{Total: total}
	if elapsed := now.Sub(t.start).Seconds(); elapsed > 0 {
		st.Overall = float64(total) / elapsed
	}
	st.Short = t.rateSince(now, total, windowShort)
	st.Long = t.rateSince(now, total, windowLong)
	return st
}

// rateSince averages over the newest sample at least window old, or the
// oldest sample when none is that old. t.mu must be held.
func (t *RateTracker) rateSince(now time.Time, total int64, window time.Duration) float64 {
	cutoff := now.Add(-window)

	var base *sample
	for i := range t.samples {
		s := &t.samples[i]
		if s.at.After(cutoff) {
			continue
		}
		if base == nil || s.at.After(base.at) {
			base = s
		}
	}
	if base == nil {
		base = t.oldest()
	}
	if base == nil {
		return 0
	}

	elapsed := now.Sub(base.at).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(total-base.bytes) / elapsed
}

// oldest returns the oldest sample. t.mu must be held.
func (t *RateTracker) oldest() *sample {
	switch {
	case len(t.samples) == 0:
		return nil
	case len(t.samples) < ringSize:
		return &t.samples[0]
	default:
		return &t.samples[t.next]
	}
}

// Reset clears all data; used when a new run starts.
func (t *RateTracker) Reset() {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.Store(0)
	t.samples = append(t.samples[:0], sample{at: now})
	t.next = 0
	t.start = now
}

// SampleCount returns the number of samples in the ring.
func (t *RateTracker) SampleCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}
