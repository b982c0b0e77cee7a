package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a single stored line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the number of recent output lines kept per run.
	MaxBufferedLines = 100
)

// ErrorPatterns mark a line of child output as an error for the run summary.
var ErrorPatterns = []string{
	"Traceback (most recent call last)",
	"Error:",
	"Exception",
	"error:",
}

// OutputHandler records the combined output of one run.
// It keeps recent lines for the history view and logs each line.
type OutputHandler struct {
	runID   string
	logger  *slog.Logger
	verbose bool

	mu        sync.Mutex
	buffer    []string
	bufIdx    int
	partial   strings.Builder
	lines     int
	errors    int
	lastError string
}

// NewOutputHandler creates a handler for a run.
// Lines are logged at debug only when verbose is set.
func NewOutputHandler(runID string, logger *slog.Logger, verbose bool) *OutputHandler {
	if logger == nil {
		logger = Discard()
	}
	return &OutputHandler{
		runID:   runID,
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// HandleChunk accepts a chunk of output. Chunks need not be whole lines;
// text after the last newline is held until the next chunk or Flush.
func (h *OutputHandler) HandleChunk(chunk string) {
	for chunk != "" {
		i := strings.IndexByte(chunk, '\n')
		if i < 0 {
			h.mu.Lock()
			h.partial.WriteString(chunk)
			h.mu.Unlock()
			return
		}

		h.mu.Lock()
		h.partial.WriteString(chunk[:i])
		line := h.partial.String()
		h.partial.Reset()
		h.mu.Unlock()

		h.HandleLine(line)
		chunk = chunk[i+1:]
	}
}

// Flush records any held partial line.
func (h *OutputHandler) Flush() {
	h.mu.Lock()
	line := h.partial.String()
	h.partial.Reset()
	h.mu.Unlock()

	if line != "" {
		h.HandleLine(line)
	}
}

// HandleLine processes a single line of output.
func (h *OutputHandler) HandleLine(line string) {
	line = strings.TrimRight(line, "\r")
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	isError := classifyLine(line) == slog.LevelWarn

	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.lines++
	if isError {
		h.errors++
		h.lastError = line
	}
	h.mu.Unlock()

	h.logLine(line, isError)
}

// logLine logs the line: errors always, everything else when verbose.
func (h *OutputHandler) logLine(line string, isError bool) {
	if !isError && !h.verbose {
		return
	}
	level := slog.LevelDebug
	if isError {
		level = slog.LevelWarn
	}
	h.logger.Log(context.Background(), level, "child_output",
		"run_id", h.runID,
		"line", line,
	)
}

// classifyLine returns LevelWarn for error-looking lines, LevelDebug otherwise.
func classifyLine(line string) slog.Level {
	for _, pattern := range ErrorPatterns {
		if strings.Contains(line, pattern) {
			return slog.LevelWarn
		}
	}
	return slog.LevelDebug
}

// RecentLines returns up to n of the most recent lines, oldest first.
func (h *OutputHandler) RecentLines(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}
	if n > h.lines {
		n = h.lines
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		lines = append(lines, h.buffer[idx])
	}
	return lines
}

// Lines returns how many lines have been recorded.
func (h *OutputHandler) Lines() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lines
}

// Errors returns how many error-looking lines have been recorded.
func (h *OutputHandler) Errors() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errors
}

// LastError returns the most recent error-looking line, or "".
func (h *OutputHandler) LastError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastError
}
