package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestOutputHandler_HandleChunk_SplitsLines(t *testing.T) {
	h := NewOutputHandler("run-1", nil, false)

	h.HandleChunk("one\ntwo\n")
	h.HandleChunk("thr")
	h.HandleChunk("ee\n")

	got := h.RecentLines(10)
	want := []string{"one", "two", "three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("RecentLines() = %v, want %v", got, want)
	}
	if h.Lines() != 3 {
		t.Errorf("Lines() = %d, want 3", h.Lines())
	}
}

func TestOutputHandler_Flush(t *testing.T) {
	h := NewOutputHandler("run-1", nil, false)

	h.HandleChunk("Name: ")
	if h.Lines() != 0 {
		t.Errorf("partial line counted before Flush: %d", h.Lines())
	}

	h.Flush()
	if got := h.RecentLines(1); len(got) != 1 || got[0] != "Name: " {
		t.Errorf("RecentLines(1) after Flush = %v", got)
	}

	// Nothing held: Flush is a no-op
	h.Flush()
	if h.Lines() != 1 {
		t.Errorf("Lines() = %d, want 1", h.Lines())
	}
}

func TestOutputHandler_Truncation(t *testing.T) {
	h := NewOutputHandler("run-1", nil, false)
	h.HandleLine(strings.Repeat("x", MaxLineLength+100))

	got := h.RecentLines(1)[0]
	if !strings.HasSuffix(got, "...(truncated)") {
		t.Error("long line was not truncated")
	}
	if len(got) != MaxLineLength+len("...(truncated)") {
		t.Errorf("truncated length = %d", len(got))
	}
}

func TestOutputHandler_CircularBuffer(t *testing.T) {
	h := NewOutputHandler("run-1", nil, false)
	for i := 0; i < MaxBufferedLines+25; i++ {
		h.HandleLine("line")
	}
	h.HandleLine("newest")

	recent := h.RecentLines(MaxBufferedLines + 50)
	if len(recent) != MaxBufferedLines {
		t.Errorf("RecentLines() returned %d lines, want %d", len(recent), MaxBufferedLines)
	}
	if recent[len(recent)-1] != "newest" {
		t.Errorf("last line = %q, want newest", recent[len(recent)-1])
	}
}

func TestOutputHandler_RecentLines_Empty(t *testing.T) {
	h := NewOutputHandler("run-1", nil, false)
	if got := h.RecentLines(5); len(got) != 0 {
		t.Errorf("RecentLines() on empty handler = %v", got)
	}
}

func TestOutputHandler_Errors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "debug")
	h := NewOutputHandler("run-7", logger, false)

	h.HandleLine("hello")
	h.HandleLine("Traceback (most recent call last):")
	h.HandleLine("  File \"<editor>\", line 2")
	h.HandleLine("NameError: name 'x' is not defined")

	if h.Errors() != 2 {
		t.Errorf("Errors() = %d, want 2", h.Errors())
	}
	if h.LastError() != "NameError: name 'x' is not defined" {
		t.Errorf("LastError() = %q", h.LastError())
	}

	output := buf.String()
	if strings.Contains(output, "line=hello") {
		t.Error("non-verbose handler logged an ordinary line")
	}
	if !strings.Contains(output, "run_id=run-7") {
		t.Errorf("error line not logged with run_id: %s", output)
	}
}

func TestOutputHandler_VerboseLogsEverything(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "debug")
	h := NewOutputHandler("run-1", logger, true)

	h.HandleLine("plain output")
	if !strings.Contains(buf.String(), "plain output") {
		t.Errorf("verbose handler did not log line: %s", buf.String())
	}
}

func TestClassifyLine(t *testing.T) {
	testCases := []struct {
		line    string
		isError bool
	}{
		{"Hello, World!", false},
		{"Traceback (most recent call last):", true},
		{"ZeroDivisionError: division by zero", true},
		{"SyntaxError: invalid syntax", true},
		{"raise Exception('boom')", true},
		{"value: 3", false},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			got := classifyLine(tc.line) == slog.LevelWarn
			if got != tc.isError {
				t.Errorf("classifyLine(%q) error = %v, want %v", tc.line, got, tc.isError)
			}
		})
	}
}

func TestOutputHandler_Concurrent(t *testing.T) {
	h := NewOutputHandler("run-1", nil, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.HandleLine("x")
				h.RecentLines(5)
			}
		}()
	}
	wg.Wait()

	if h.Lines() != 1000 {
		t.Errorf("Lines() = %d, want 1000", h.Lines())
	}
}
