package orchestrator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/randomizedcoder/go-script-editor/internal/execution"
	"github.com/randomizedcoder/go-script-editor/internal/relay"
)

// stoppedExitStatus is the process exit status for a run the user
// interrupted, as a shell reports for SIGINT.
const stoppedExitStatus = 130

// RunHeadless runs code once without the TUI. Output goes to out, lines read
// from in go to the program's stdin. SIGINT, SIGTERM or ctx cancellation
// stop the run. Returns the exit status the editor should exit with.
func (o *Orchestrator) RunHeadless(ctx context.Context, code string, in io.Reader, out io.Writer) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	id, err := o.controller.Run(code)
	if err != nil {
		return 1, fmt.Errorf("run failed: %w", err)
	}

	if in != nil {
		go o.forwardStdin(in)
	}

	go func() {
		select {
		case sig := <-sigCh:
			o.logger.Info("received_signal", "signal", sig.String())
		case <-ctx.Done():
		}
		// ErrNotRunning once the run has already ended.
		_ = o.controller.Stop()
	}()

	// Stop always publishes a report, so this loop ends.
	rel := o.controller.Relay()
	for {
		msg, err := rel.Next(context.Background())
		if err != nil {
			return 1, fmt.Errorf("relay closed: %w", err)
		}
		if msg.RunID() != id {
			continue
		}

		switch m := msg.(type) {
		case relay.Output:
			// The terminal already shows what the user typed.
			if m.Kind == relay.KindEcho {
				continue
			}
			if _, err := io.WriteString(out, m.Text); err != nil {
				o.logger.Warn("output_write_failed", "run_id", id, "error", err)
			}

		case relay.Finished:
			o.logger.Info("headless_finished",
				"run_id", id,
				"banner", m.Banner(),
				"exit_code", m.ExitCode,
			)
			return ExitStatus(m), nil
		}
	}
}

// forwardStdin sends each line of in to the running program until the run
// ends or in is exhausted.
func (o *Orchestrator) forwardStdin(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := o.controller.SendInput(scanner.Text()); errors.Is(err, execution.ErrNotRunning) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		o.logger.Warn("stdin_read_failed", "error", err)
	}
}

// ExitStatus maps a completion report to a process exit status.
func ExitStatus(f relay.Finished) int {
	switch f.Outcome {
	case relay.OutcomeFinished:
		return 0
	case relay.OutcomeStopped:
		return stoppedExitStatus
	default:
		if f.ExitCode > 0 && f.ExitCode < 256 {
			return f.ExitCode
		}
		return 1
	}
}
