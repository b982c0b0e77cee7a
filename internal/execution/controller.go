package execution

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/randomizedcoder/go-script-editor/internal/logging"
	"github.com/randomizedcoder/go-script-editor/internal/process"
	"github.com/randomizedcoder/go-script-editor/internal/relay"
)

// DefaultDrainTimeout is how long the worker waits for output EOF after the
// child has exited.
const DefaultDrainTimeout = 5 * time.Second

// ReportTailLines is how many output lines a Report carries.
const ReportTailLines = 5

// Recorder receives run events for metrics. All methods must be cheap and
// must not call back into the Controller.
type Recorder interface {
	RunStarted()
	RunRejected(reason string)
	OutputChunk(bytes int)
	InputLine()
	RunFinished(outcome relay.Outcome, exitCode int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RunStarted()                                   {}
func (nopRecorder) RunRejected(string)                            {}
func (nopRecorder) OutputChunk(int)                               {}
func (nopRecorder) InputLine()                                    {}
func (nopRecorder) RunFinished(relay.Outcome, int, time.Duration) {}

// Report summarizes a completed run for history and callbacks.
type Report struct {
	RunID       string
	Started     time.Time
	Duration    time.Duration
	Outcome     relay.Outcome
	ExitCode    int
	Err         error
	OutputLines int
	ErrorLines  int
	LastError   string
	Tail        []string // last ReportTailLines lines of output, oldest first
}

// Callbacks contains optional callback functions for controller events.
// They are invoked with the controller's lock held and must not call back
// into the Controller.
type Callbacks struct {
	// OnStateChange is called on every state transition.
	OnStateChange func(oldState, newState State)

	// OnFinish is called once per run, including stopped runs.
	OnFinish func(Report)
}

// Config holds configuration for creating a new Controller.
type Config struct {
	Runner       process.Runner
	Relay        *relay.Relay
	Logger       *slog.Logger
	TempDir      string // "" uses the OS temp dir
	Suffix       string // temp source suffix, e.g. ".py"
	DrainTimeout time.Duration
	Verbose      bool // log every output line
	Callbacks    Callbacks
	Recorder     Recorder
}

// Controller runs at most one Session at a time.
// All exported methods are safe to call from the UI goroutine; none block
// on the child.
type Controller struct {
	runner       process.Runner
	relay        *relay.Relay
	logger       *slog.Logger
	tempDir      string
	suffix       string
	drainTimeout time.Duration
	verbose      bool
	callbacks    Callbacks
	recorder     Recorder

	// ctx outlives every child; cancelling it kills them.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	session *Session
	closed  bool

	wg sync.WaitGroup
}

// New creates a new Controller with the given configuration.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	drain := cfg.DrainTimeout
	if drain <= 0 {
		drain = DefaultDrainTimeout
	}
	rel := cfg.Relay
	if rel == nil {
		rel = relay.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		runner:       cfg.Runner,
		relay:        rel,
		logger:       logger,
		tempDir:      cfg.TempDir,
		suffix:       cfg.Suffix,
		drainTimeout: drain,
		verbose:      cfg.Verbose,
		callbacks:    cfg.Callbacks,
		recorder:     recorder,
		ctx:          ctx,
		cancel:       cancel,
		state:        StateIdle,
	}
}

// Relay returns the relay the controller publishes on.
func (c *Controller) Relay() *relay.Relay {
	return c.relay
}

// Run starts executing code and returns the new run's ID.
func (c *Controller) Run(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		c.recorder.RunRejected("empty")
		return "", ErrEmptySource
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	if c.state != StateIdle {
		c.recorder.RunRejected("busy")
		return "", ErrBusy
	}

	sess, err := newSession(code, c.tempDir, c.suffix, c.logger, c.verbose)
	if err != nil {
		c.recorder.RunRejected("temp_file")
		return "", err
	}

	c.session = sess
	c.setStateLocked(StateRunning)
	c.recorder.RunStarted()

	c.logger.Info("run_started",
		"run_id", sess.ID,
		"command", c.runner.CommandString(sess.TempFilePath),
	)

	c.wg.Add(1)
	go c.work(sess)

	return sess.ID, nil
}

// SendInput queues one line for the running program's stdin and echoes it
// to the terminal panel.
func (c *Controller) SendInput(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := c.session
	if c.state != StateRunning || sess == nil || sess.stopped {
		return ErrNotRunning
	}
	if !sess.input.Push(text) {
		return ErrNotRunning
	}

	c.relay.Publish(relay.Output{Run: sess.ID, Kind: relay.KindEcho, Text: "> " + text + "\n"})
	c.recorder.InputLine()
	return nil
}

// Stop terminates the running program. The Stopped report is published
// before Stop returns; the winding-down worker publishes nothing further.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := c.session
	if c.state != StateRunning || sess == nil {
		return ErrNotRunning
	}

	sess.stopped = true
	c.session = nil
	sess.input.Close()

	// No handle yet means the worker is still spawning; it terminates the
	// child itself once it sees the stopped flag.
	if sess.handle != nil {
		if err := sess.handle.Terminate(); err != nil {
			c.logger.Warn("terminate_failed",
				"run_id", sess.ID,
				"pid", sess.handle.Pid(),
				"error", err,
			)
		}
	}

	pushed, delivered := sess.input.Stats()
	c.logger.Info("run_stopped",
		"run_id", sess.ID,
		"input_undelivered", pushed-delivered,
	)

	c.completeLocked(sess, Report{
		RunID:       sess.ID,
		Started:     sess.Started,
		Duration:    time.Since(sess.Started),
		Outcome:     relay.OutcomeStopped,
		ExitCode:    relay.StoppedExitCode,
		OutputLines: sess.transcript.Lines(),
		ErrorLines:  sess.transcript.Errors(),
		LastError:   sess.transcript.LastError(),
		Tail:        sess.transcript.RecentLines(ReportTailLines),
	})
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns a snapshot of the running session, if any.
func (c *Controller) Active() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Snapshot{}, false
	}
	return c.session.snapshot(), true
}

// Wait blocks until every worker goroutine, including those of stopped
// runs, has returned.
func (c *Controller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops any active run, rejects further runs and waits for workers.
// If ctx expires first, remaining children are killed.
func (c *Controller) Close(ctx context.Context) error {
	if err := c.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	err := c.Wait(ctx)
	c.cancel()
	if err != nil {
		c.logger.Warn("close_timeout", "error", err)
	}
	return err
}

// completeLocked moves the controller back to idle and publishes the single
// completion report for sess. c.mu must be held.
// Metrics and OnFinish run first so a relay consumer that sees the report
// also sees them.
func (c *Controller) completeLocked(sess *Session, rep Report) {
	c.setStateLocked(stateFor(rep.Outcome))
	c.setStateLocked(StateIdle)

	c.recorder.RunFinished(rep.Outcome, rep.ExitCode, rep.Duration)
	if c.callbacks.OnFinish != nil {
		c.callbacks.OnFinish(rep)
	}

	c.relay.Publish(relay.Finished{
		Run:      sess.ID,
		Outcome:  rep.Outcome,
		ExitCode: rep.ExitCode,
		Err:      rep.Err,
		Duration: rep.Duration,
	})
}

// setStateLocked changes state. c.mu must be held.
func (c *Controller) setStateLocked(newState State) {
	oldState := c.state
	if oldState == newState {
		return
	}
	c.state = newState

	if c.callbacks.OnStateChange != nil {
		c.callbacks.OnStateChange(oldState, newState)
	}
}
