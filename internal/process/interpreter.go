package process

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// InterpreterConfig holds configuration for running scripts.
type InterpreterConfig struct {
	// BinaryPath is the interpreter executable (looked up in PATH if bare).
	BinaryPath string

	// Args are placed between the binary and the source path.
	Args []string

	// Env entries (KEY=VALUE) are appended to the editor's own environment.
	Env []string

	// TerminateGrace is how long a terminated child may linger before
	// its process group is killed. Zero kills immediately.
	TerminateGrace time.Duration

	// SyntaxTimeout bounds a single syntax check.
	SyntaxTimeout time.Duration

	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// DefaultInterpreterConfig returns an InterpreterConfig with sensible defaults.
func DefaultInterpreterConfig() *InterpreterConfig {
	return &InterpreterConfig{
		BinaryPath:     "python3",
		Env:            []string{"PYTHONUNBUFFERED=1"},
		TerminateGrace: 2 * time.Second,
		SyntaxTimeout:  10 * time.Second,
	}
}

// Interpreter implements Runner for a script interpreter.
type Interpreter struct {
	config *InterpreterConfig
	logger *slog.Logger
}

// NewInterpreter creates a runner with the given configuration.
func NewInterpreter(cfg *InterpreterConfig) *Interpreter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Interpreter{
		config: cfg,
		logger: logger,
	}
}

// Name returns the interpreter's base name, e.g. "python3".
func (r *Interpreter) Name() string {
	return filepath.Base(r.config.BinaryPath)
}

// Config returns the runner's configuration.
func (r *Interpreter) Config() *InterpreterConfig {
	return r.config
}

// BuildCommand creates the exec.Cmd for sourcePath. The command is not started.
func (r *Interpreter) BuildCommand(ctx context.Context, sourcePath string) (*exec.Cmd, error) {
	if r.config.BinaryPath == "" {
		return nil, &SpawnError{Path: "", Err: fmt.Errorf("no interpreter configured")}
	}

	path, err := exec.LookPath(r.config.BinaryPath)
	if err != nil {
		return nil, &SpawnError{Path: r.config.BinaryPath, Err: err}
	}

	cmd := exec.CommandContext(ctx, path, r.buildArgs(sourcePath)...)
	cmd.Env = append(os.Environ(), r.config.Env...)
	setProcessGroup(cmd)

	// A cancelled context takes the whole group down, not just the leader.
	cmd.Cancel = func() error {
		return killGroup(cmd.Process)
	}

	return cmd, nil
}

// buildArgs returns interpreter args followed by the source path.
func (r *Interpreter) buildArgs(sourcePath string) []string {
	args := make([]string, 0, len(r.config.Args)+1)
	args = append(args, r.config.Args...)
	return append(args, sourcePath)
}

// CommandString returns the command as a shell-style string for display.
func (r *Interpreter) CommandString(sourcePath string) string {
	parts := []string{r.config.BinaryPath}
	for _, arg := range r.buildArgs(sourcePath) {
		if strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Start spawns the interpreter with stdin piped and stdout/stderr merged.
func (r *Interpreter) Start(ctx context.Context, sourcePath string) (Handle, error) {
	cmd, err := r.BuildCommand(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	// One pipe for both streams keeps their relative order.
	outRead, outWrite, err := os.Pipe()
	if err != nil {
		return nil, &SpawnError{Path: r.config.BinaryPath, Err: fmt.Errorf("output pipe: %w", err)}
	}
	cmd.Stdout = outWrite
	cmd.Stderr = outWrite

	stdin, err := cmd.StdinPipe()
	if err != nil {
		outRead.Close()
		outWrite.Close()
		return nil, &SpawnError{Path: r.config.BinaryPath, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		outRead.Close()
		outWrite.Close()
		stdin.Close()
		return nil, &SpawnError{Path: r.config.BinaryPath, Err: err}
	}

	// Close the parent's write end so EOF arrives when the child exits.
	outWrite.Close()

	child := newChild(cmd, stdin, outRead, r.config.TerminateGrace, r.logger)

	r.logger.Debug("child_started",
		"interpreter", r.Name(),
		"pid", child.Pid(),
		"source", sourcePath,
	)

	return child, nil
}

// Ensure Interpreter implements Runner
var _ Runner = (*Interpreter)(nil)
