// Package stats keeps the editor's run history and formats the exit summary.
package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/randomizedcoder/go-script-editor/internal/execution"
	"github.com/randomizedcoder/go-script-editor/internal/relay"
)

// DefaultHistorySize is how many run records the history keeps.
const DefaultHistorySize = 50

// Record is one completed run.
type Record struct {
	ID          string
	Started     time.Time
	Duration    time.Duration
	Outcome     relay.Outcome
	ExitCode    int
	OutputLines int
	ErrorLines  int
	LastError   string
	Tail        []string
}

// RecordFromReport converts a controller report into a history record.
func RecordFromReport(rep execution.Report) Record {
	return Record{
		ID:          rep.RunID,
		Started:     rep.Started,
		Duration:    rep.Duration,
		Outcome:     rep.Outcome,
		ExitCode:    rep.ExitCode,
		OutputLines: rep.OutputLines,
		ErrorLines:  rep.ErrorLines,
		LastError:   rep.LastError,
		Tail:        rep.Tail,
	}
}

// Totals summarizes every run recorded, including those no longer in the
// ring.
type Totals struct {
	Runs     int64
	Finished int64
	Errored  int64
	Stopped  int64

	DurationP50 time.Duration
	DurationP95 time.Duration
	DurationMax time.Duration
}

// History is a bounded ring of recent runs plus all-time totals.
// Safe for concurrent use.
type History struct {
	mu       sync.Mutex
	records  []Record
	next     int
	size     int
	totals   Totals
	exits    map[int]int64
	duration *tdigest.TDigest
}

// NewHistory creates a history keeping the last capacity runs.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		records:  make([]Record, capacity),
		exits:    make(map[int]int64),
		duration: tdigest.NewWithCompression(100),
	}
}

// Add records a completed run.
func (h *History) Add(rec Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[h.next] = rec
	h.next = (h.next + 1) % len(h.records)
	if h.size < len(h.records) {
		h.size++
	}

	h.totals.Runs++
	switch rec.Outcome {
	case relay.OutcomeFinished:
		h.totals.Finished++
	case relay.OutcomeStopped:
		h.totals.Stopped++
	default:
		h.totals.Errored++
	}
	if rec.Outcome != relay.OutcomeStopped {
		h.exits[rec.ExitCode]++
	}
	if rec.Duration > h.totals.DurationMax {
		h.totals.DurationMax = rec.Duration
	}
	h.duration.Add(float64(rec.Duration.Nanoseconds()), 1)
}

// AddReport records a controller report. It has the signature of
// execution.Callbacks.OnFinish.
func (h *History) AddReport(rep execution.Report) {
	h.Add(RecordFromReport(rep))
}

// Recent returns up to n records, newest first.
func (h *History) Recent(n int) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > h.size || n <= 0 {
		n = h.size
	}
	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.records)) % len(h.records)
		out = append(out, h.records[idx])
	}
	return out
}

// Len returns how many records are held in the ring.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Totals returns all-time counts and duration percentiles.
func (h *History) Totals() Totals {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.totals
	if t.Runs > 0 {
		t.DurationP50 = time.Duration(h.duration.Quantile(0.50))
		t.DurationP95 = time.Duration(h.duration.Quantile(0.95))
	}
	return t
}

// ExitCodes returns a copy of the exit code counts. Stopped runs are not
// counted.
func (h *History) ExitCodes() map[int]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[int]int64, len(h.exits))
	for code, n := range h.exits {
		out[code] = n
	}
	return out
}
