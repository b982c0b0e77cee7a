package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/randomizedcoder/go-script-editor/internal/queue"
)

func TestRelay_PreservesOrder(t *testing.T) {
	r := New()
	r.Publish(Output{Run: "r1", Kind: KindStdout, Text: "one\n"})
	r.Publish(Output{Run: "r1", Kind: KindEcho, Text: "> two\n"})
	r.Publish(Output{Run: "r1", Kind: KindStdout, Text: "three\n"})
	r.Publish(Finished{Run: "r1", Outcome: OutcomeFinished})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []string
	for i := 0; i < 3; i++ {
		msg, err := r.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out, ok := msg.(Output)
		if !ok {
			t.Fatalf("message %d is %T, want Output", i, msg)
		}
		got = append(got, out.Text)
	}
	want := []string{"one\n", "> two\n", "three\n"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}

	msg, err := r.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if fin, ok := msg.(Finished); !ok || !fin.Success() {
		t.Errorf("last message = %#v, want successful Finished", msg)
	}
}

// =============================================================================
// Tests: output merging
// =============================================================================

func TestRelay_MergesAdjacentOutput(t *testing.T) {
	tests := []struct {
		name  string
		msgs  []Message
		count int
	}{
		{
			name: "same run and kind",
			msgs: []Message{
				Output{Run: "r", Text: "a\n"},
				Output{Run: "r", Text: "b\n"},
				Output{Run: "r", Text: "c"},
			},
			count: 1,
		},
		{
			name: "kind change",
			msgs: []Message{
				Output{Run: "r", Text: "a\n"},
				Output{Run: "r", Kind: KindEcho, Text: "> b\n"},
				Output{Run: "r", Text: "c\n"},
			},
			count: 3,
		},
		{
			name: "run change",
			msgs: []Message{
				Output{Run: "r1", Text: "a\n"},
				Output{Run: "r2", Text: "b\n"},
			},
			count: 2,
		},
		{
			name: "finished is never merged",
			msgs: []Message{
				Output{Run: "r", Text: "a\n"},
				Finished{Run: "r", Outcome: OutcomeStopped},
				Output{Run: "r", Text: "b\n"},
			},
			count: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			var want strings.Builder
			for _, m := range tc.msgs {
				r.Publish(m)
				if o, ok := m.(Output); ok {
					want.WriteString(o.Text)
				}
			}

			got := r.Drain()
			if len(got) != tc.count {
				t.Fatalf("Drain() returned %d messages, want %d: %#v", len(got), tc.count, got)
			}
			var text strings.Builder
			for _, m := range got {
				if o, ok := m.(Output); ok {
					text.WriteString(o.Text)
				}
			}
			if text.String() != want.String() {
				t.Errorf("merged text = %q, want %q", text.String(), want.String())
			}
		})
	}
}

func TestRelay_MergeStopsAtCap(t *testing.T) {
	r := New()
	line := strings.Repeat("x", 1023) + "\n"
	const lines = 3 * MaxMergedOutput / 1024
	for i := 0; i < lines; i++ {
		r.Publish(Output{Run: "r", Text: line})
	}

	got := r.Drain()
	if len(got) != 3 {
		t.Fatalf("Drain() returned %d messages, want 3", len(got))
	}
	for i, m := range got {
		if n := len(m.(Output).Text); n > MaxMergedOutput {
			t.Errorf("message %d holds %d bytes, cap is %d", i, n, MaxMergedOutput)
		}
	}
}

func TestRelay_MergeAfterConsumerCaughtUp(t *testing.T) {
	r := New()
	r.Publish(Output{Run: "r", Text: "a\n"})
	if _, ok := r.TryNext(); !ok {
		t.Fatal("TryNext() found nothing")
	}
	r.Publish(Output{Run: "r", Text: "b\n"})

	msg, ok := r.TryNext()
	if !ok || msg.(Output).Text != "b\n" {
		t.Errorf("TryNext() = %#v, want the new chunk on its own", msg)
	}
}

func TestRelay_DrainEmpty(t *testing.T) {
	if got := New().Drain(); len(got) != 0 {
		t.Errorf("Drain() on empty relay = %v", got)
	}
}

func TestRelay_TryNextEmpty(t *testing.T) {
	r := New()
	if msg, ok := r.TryNext(); ok {
		t.Errorf("TryNext() on empty relay = %#v", msg)
	}
}

func TestRelay_CloseDrainsThenErrors(t *testing.T) {
	r := New()
	r.Publish(Output{Run: "r", Text: "x"})
	r.Close()

	if r.Publish(Output{Run: "r", Text: "late"}) {
		t.Error("Publish after Close should return false")
	}

	ctx := context.Background()
	if _, err := r.Next(ctx); err != nil {
		t.Fatalf("Next() error = %v, want pending message", err)
	}
	if _, err := r.Next(ctx); !errors.Is(err, queue.ErrClosed) {
		t.Errorf("Next() on closed empty relay err = %v, want queue.ErrClosed", err)
	}
}

func TestFinished_Banner(t *testing.T) {
	tests := []struct {
		name string
		msg  Finished
		want string
	}{
		{"success", Finished{Outcome: OutcomeFinished}, "Program finished successfully!"},
		{"errored", Finished{Outcome: OutcomeErrored, ExitCode: 2}, "Program finished with errors (code: 2)"},
		{"spawn failure", Finished{Outcome: OutcomeErrored, ExitCode: -1}, "Program finished with errors (code: -1)"},
		{"stopped", Finished{Outcome: OutcomeStopped, ExitCode: StoppedExitCode}, "Execution stopped by user"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.msg.Banner(); got != tc.want {
				t.Errorf("Banner() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindAndOutcome_String(t *testing.T) {
	kinds := map[Kind]string{
		KindStdout: "stdout",
		KindEcho:   "echo",
		KindError:  "error",
		KindNotice: "notice",
		Kind(99):   "unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}

	outcomes := map[Outcome]string{
		OutcomeFinished: "finished",
		OutcomeErrored:  "errored",
		OutcomeStopped:  "stopped",
		Outcome(42):     "unknown",
	}
	for o, want := range outcomes {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
