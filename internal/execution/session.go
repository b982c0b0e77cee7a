package execution

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randomizedcoder/go-script-editor/internal/inputq"
	"github.com/randomizedcoder/go-script-editor/internal/logging"
	"github.com/randomizedcoder/go-script-editor/internal/process"
)

// Session is one execution of the editor buffer.
// It is owned by the Controller; callers only see Snapshots.
type Session struct {
	ID           string
	SourceCode   string
	TempFilePath string
	Started      time.Time

	input      *inputq.Channel
	transcript *logging.OutputHandler

	// Guarded by Controller.mu.
	handle  process.Handle
	stopped bool

	removeOnce sync.Once
}

// Snapshot is a read-only view of the active session.
type Snapshot struct {
	ID           string
	TempFilePath string
	Started      time.Time
	Pid          int
	PendingInput int
}

// newSession writes code to a fresh temporary file.
func newSession(code, dir, suffix string, logger *slog.Logger, verbose bool) (*Session, error) {
	f, err := os.CreateTemp(dir, "run-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create temp source: %w", err)
	}
	path := f.Name()

	if _, err := f.WriteString(code); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write temp source: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close temp source: %w", err)
	}

	id := uuid.NewString()
	return &Session{
		ID:           id,
		SourceCode:   code,
		TempFilePath: path,
		Started:      time.Now(),
		input:        inputq.New(),
		transcript:   logging.NewOutputHandler(id, logger, verbose),
	}, nil
}

// removeSource deletes the temporary file. Safe to call more than once.
func (s *Session) removeSource(logger *slog.Logger) {
	s.removeOnce.Do(func() {
		if err := os.Remove(s.TempFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("temp_file_remove_failed",
				"run_id", s.ID,
				"path", s.TempFilePath,
				"error", err,
			)
		}
	})
}

// snapshot must be called with Controller.mu held.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:           s.ID,
		TempFilePath: s.TempFilePath,
		Started:      s.Started,
		PendingInput: s.input.Pending(),
	}
	if s.handle != nil {
		snap.Pid = s.handle.Pid()
	}
	return snap
}
