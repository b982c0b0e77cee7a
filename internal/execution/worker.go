package execution

import (
	"time"

	"github.com/randomizedcoder/go-script-editor/internal/process"
	"github.com/randomizedcoder/go-script-editor/internal/relay"
)

// result is what the worker learned about a run.
type result struct {
	exitCode int
	err      error
}

// work owns one session from spawn to completion.
func (c *Controller) work(sess *Session) {
	defer c.wg.Done()

	h, err := c.runner.Start(c.ctx, sess.TempFilePath)
	if err != nil {
		c.logger.Error("spawn_failed",
			"run_id", sess.ID,
			"error", err,
		)
		sess.removeSource(c.logger)
		c.publish(sess, relay.KindError, "Error: "+err.Error()+"\n")
		c.finish(sess, result{exitCode: -1, err: err})
		return
	}
	defer h.Close()

	if !c.attach(sess, h) {
		// Stopped while spawning.
		if err := h.Terminate(); err != nil {
			c.logger.Warn("terminate_failed", "run_id", sess.ID, "pid", h.Pid(), "error", err)
		}
	}

	c.logger.Debug("run_spawned", "run_id", sess.ID, "pid", h.Pid())

	res := c.stream(sess, h)
	sess.removeSource(c.logger)
	c.finish(sess, res)
}

// attach records the handle so Stop can terminate it.
// Returns false if the session was stopped before the handle existed.
func (c *Controller) attach(sess *Session, h process.Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess.handle = h
	return !sess.stopped
}

// stream relays output and forwards input until the output stream has
// ended and the child has exited.
func (c *Controller) stream(sess *Session, h process.Handle) result {
	lines := h.Lines()
	done := h.Done()
	input := sess.input.Ready()

	var drain <-chan time.Time
	var streamErr error

	fail := func(err error) {
		if streamErr != nil {
			return
		}
		streamErr = err
		input = nil
		c.logger.Warn("input_forward_failed", "run_id", sess.ID, "error", err)
		c.publish(sess, relay.KindError, "Error: "+err.Error()+"\n")
		h.Terminate()
	}

	for lines != nil || done != nil {
		select {
		case chunk, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			c.publish(sess, relay.KindStdout, chunk)
			if input != nil {
				if err := c.forwardInput(sess, h); err != nil {
					fail(err)
				}
			}

		case <-input:
			if err := c.forwardInput(sess, h); err != nil {
				fail(err)
			}

		case <-done:
			done = nil
			if lines != nil {
				// A grandchild may still hold the pipe open.
				timer := time.NewTimer(c.drainTimeout)
				defer timer.Stop()
				drain = timer.C
			}

		case <-drain:
			c.logger.Warn("output_drain_timeout",
				"run_id", sess.ID,
				"timeout", c.drainTimeout.String(),
			)
			lines = nil
		}
	}

	sess.transcript.Flush()

	if err := h.Err(); err != nil && streamErr == nil {
		streamErr = err
		c.publish(sess, relay.KindError, "Error: "+err.Error()+"\n")
	}

	code, _ := h.Poll()
	if streamErr != nil && code == 0 {
		code = -1
	}
	return result{exitCode: code, err: streamErr}
}

// forwardInput writes every pending input line to the child.
func (c *Controller) forwardInput(sess *Session, h process.Handle) error {
	for {
		line, ok := sess.input.Next()
		if !ok {
			return nil
		}
		if err := h.WriteLine(line); err != nil {
			return err
		}
	}
}

// publish sends a chunk unless the session has been stopped.
// Holding c.mu orders every chunk before a Stop's report.
func (c *Controller) publish(sess *Session, kind relay.Kind, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess.stopped {
		return
	}
	if kind == relay.KindStdout {
		sess.transcript.HandleChunk(text)
	}
	c.relay.Publish(relay.Output{Run: sess.ID, Kind: kind, Text: text})
	c.recorder.OutputChunk(len(text))
}

// finish publishes the completion report unless Stop already did.
func (c *Controller) finish(sess *Session, res result) {
	duration := time.Since(sess.Started)

	c.mu.Lock()
	defer c.mu.Unlock()

	sess.input.Close()
	sess.handle = nil

	if sess.stopped {
		c.logger.Debug("stopped_run_exited",
			"run_id", sess.ID,
			"exit_code", res.exitCode,
			"duration", duration.String(),
		)
		return
	}
	c.session = nil

	outcome := relay.OutcomeFinished
	if res.exitCode != 0 || res.err != nil {
		outcome = relay.OutcomeErrored
	}

	_, delivered := sess.input.Stats()
	c.logger.Info("run_finished",
		"run_id", sess.ID,
		"outcome", outcome.String(),
		"exit_code", res.exitCode,
		"duration", duration.String(),
		"output_lines", sess.transcript.Lines(),
		"input_lines", delivered,
	)

	c.completeLocked(sess, Report{
		RunID:       sess.ID,
		Started:     sess.Started,
		Duration:    duration,
		Outcome:     outcome,
		ExitCode:    res.exitCode,
		Err:         res.err,
		OutputLines: sess.transcript.Lines(),
		ErrorLines:  sess.transcript.Errors(),
		LastError:   sess.transcript.LastError(),
		Tail:        sess.transcript.RecentLines(ReportTailLines),
	})
}
