package stats

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/randomizedcoder/go-script-editor/internal/relay"
)

// =============================================================================
// Table-Driven Tests: Formatting Functions
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"zero", 0, "00:00:00"},
		{"one second", time.Second, "00:00:01"},
		{"one minute", time.Minute, "00:01:00"},
		{"one hour", time.Hour, "01:00:00"},
		{"mixed", 2*time.Hour + 30*time.Minute + 45*time.Second, "02:30:45"},
		{"24 hours", 24 * time.Hour, "24:00:00"},
		{"sub-second", 500 * time.Millisecond, "00:00:00"},
		{"59 seconds", 59 * time.Second, "00:00:59"},
		{"59 minutes", 59 * time.Minute, "00:59:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.duration); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"zero", 0, "0"},
		{"small", 123, "123"},
		{"999", 999, "999"},
		{"1K", 1000, "1.0K"},
		{"1.5K", 1500, "1.5K"},
		{"10K", 10000, "10.0K"},
		{"999K", 999000, "999.0K"},
		{"1M", 1000000, "1.0M"},
		{"1.5M", 1500000, "1.5M"},
		{"10M", 10000000, "10.0M"},
		{"negative", -100, "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.n); got != tt.want {
				t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"zero", 0, "0 ms"},
		{"1 ms", time.Millisecond, "1 ms"},
		{"100 ms", 100 * time.Millisecond, "100 ms"},
		{"1 second", time.Second, "1000 ms"},
		{"sub-ms", 500 * time.Microsecond, "500 µs"},
		{"1 us", time.Microsecond, "1 µs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMs(tt.duration); got != tt.want {
				t.Errorf("FormatMs(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestExitCodeLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "(clean)"},
		{1, "(error)"},
		{-1, "(no exit code)"},
		{130, "(SIGINT)"},
		{137, "(SIGKILL)"},
		{143, "(SIGTERM)"},
		{2, ""},
		{255, ""},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.code), func(t *testing.T) {
			if got := exitCodeLabel(tt.code); got != tt.want {
				t.Errorf("exitCodeLabel(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Tests: FormatSummary
// =============================================================================

func TestFormatSummary_NoRuns(t *testing.T) {
	out := FormatSummary(NewHistory(10), SummaryConfig{
		Duration:    90 * time.Second,
		Interpreter: "python3",
	})

	for _, want := range []string{"Exit Summary", "00:01:30", "python3", "No programs were run"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatSummary_NilHistory(t *testing.T) {
	out := FormatSummary(nil, SummaryConfig{})
	if !strings.Contains(out, "No programs were run") {
		t.Errorf("nil history summary = %s", out)
	}
}

func TestFormatSummary_WithRuns(t *testing.T) {
	h := NewHistory(10)
	h.Add(Record{ID: "a", Outcome: relay.OutcomeFinished, ExitCode: 0, Duration: 100 * time.Millisecond})
	h.Add(Record{ID: "b", Outcome: relay.OutcomeErrored, ExitCode: 1, Duration: 200 * time.Millisecond, LastError: "NameError: name 'x' is not defined"})
	h.Add(Record{ID: "c", Outcome: relay.OutcomeStopped, ExitCode: relay.StoppedExitCode, Duration: time.Second})

	out := FormatSummary(h, SummaryConfig{
		Duration:    time.Minute,
		MetricsAddr: "127.0.0.1:9100",
		RecentRuns:  2,
	})

	for _, want := range []string{
		"Programs Run:           3",
		"Outcomes",
		"Exit Codes",
		"(clean)",
		"(error)",
		"Recent Runs",
		"NameError",
		"http://127.0.0.1:9100/metrics",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(no exit code)") {
		t.Error("stopped runs should not appear under exit codes")
	}
}

func TestFormatRecord(t *testing.T) {
	started := time.Date(2024, 1, 2, 14, 2, 11, 0, time.UTC)
	rec := Record{
		Started:     started,
		Outcome:     relay.OutcomeErrored,
		ExitCode:    1,
		Duration:    120 * time.Millisecond,
		OutputLines: 3,
		LastError:   strings.Repeat("E", 100),
	}

	got := FormatRecord(rec)
	if !strings.HasPrefix(got, "14:02:11  errored") {
		t.Errorf("FormatRecord() = %q", got)
	}
	if !strings.Contains(got, "120 ms") || !strings.Contains(got, "3 lines") {
		t.Errorf("FormatRecord() = %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long error not truncated: %q", got)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkFormatSummary(b *testing.B) {
	h := NewHistory(DefaultHistorySize)
	for i := 0; i < 100; i++ {
		h.Add(Record{Outcome: relay.OutcomeFinished, Duration: time.Duration(i) * time.Millisecond})
	}
	cfg := SummaryConfig{Duration: time.Hour, RecentRuns: 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = FormatSummary(h, cfg)
	}
}

func BenchmarkFormatNumber(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = FormatNumber(int64(i))
	}
}
