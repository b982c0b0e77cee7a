// Package orchestrator wires the editor's components together: the
// interpreter runner, the execution controller, run history, metrics and
// preflight, plus the headless and check-only drivers.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-script-editor/internal/config"
	"github.com/randomizedcoder/go-script-editor/internal/execution"
	"github.com/randomizedcoder/go-script-editor/internal/metrics"
	"github.com/randomizedcoder/go-script-editor/internal/preflight"
	"github.com/randomizedcoder/go-script-editor/internal/process"
	"github.com/randomizedcoder/go-script-editor/internal/stats"
)

// shutdownTimeout bounds waiting for a stopped child to be reaped.
const shutdownTimeout = 10 * time.Second

// summaryRuns is how many recent runs the exit summary lists.
const summaryRuns = 5

// Orchestrator coordinates all components for one editor session.
type Orchestrator struct {
	config *config.Config
	logger *slog.Logger

	interpreter   *process.Interpreter
	controller    *execution.Controller
	history       *stats.History
	registry      *prometheus.Registry
	metrics       *metrics.Collector
	metricsServer *metrics.Server // nil when -metrics is unset

	startTime time.Time
}

// New creates a new Orchestrator with the given configuration.
func New(cfg *config.Config, logger *slog.Logger, version string) *Orchestrator {
	// Create interpreter runner
	interpreter := process.NewInterpreter(&process.InterpreterConfig{
		BinaryPath:     cfg.Interpreter,
		Args:           cfg.InterpreterArgs,
		Env:            cfg.Env,
		TerminateGrace: cfg.TerminateGrace,
		SyntaxTimeout:  cfg.SyntaxTimeout,
		Logger:         logger,
	})

	// Create metrics on a private registry so tests can build many
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollectorWithRegistry(metrics.CollectorConfig{
		Version:     version,
		Interpreter: interpreter.Name(),
	}, registry)

	var metricsServer *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr, registry, logger)
	}

	orch := &Orchestrator{
		config:        cfg,
		logger:        logger,
		interpreter:   interpreter,
		history:       stats.NewHistory(cfg.HistorySize),
		registry:      registry,
		metrics:       collector,
		metricsServer: metricsServer,
		startTime:     time.Now(),
	}

	// Create controller with callbacks
	orch.controller = execution.New(execution.Config{
		Runner:       interpreter,
		Logger:       logger,
		TempDir:      cfg.TempDir,
		Suffix:       cfg.Suffix,
		DrainTimeout: cfg.DrainTimeout,
		Verbose:      cfg.Verbose,
		Recorder:     collector,
		Callbacks: execution.Callbacks{
			OnStateChange: orch.onStateChange,
			OnFinish:      orch.onFinish,
		},
	})

	return orch
}

// Preflight runs the startup checks and prints them to w.
func (o *Orchestrator) Preflight(w io.Writer) error {
	if o.config.SkipPreflight {
		return nil
	}
	result := preflight.RunAll(preflight.Options{
		Interpreter: o.config.Interpreter,
		TempDir:     o.config.TempDir,
	})
	preflight.PrintResults(w, result)
	if !result.Passed {
		return fmt.Errorf("preflight checks failed (use -skip-preflight to override)")
	}
	return nil
}

// Start starts the metrics server, if configured.
func (o *Orchestrator) Start() error {
	if o.metricsServer == nil {
		return nil
	}
	if err := o.metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	return nil
}

// Shutdown stops any running program, waits for its worker and stops the
// metrics server.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := o.controller.Close(ctx); err != nil {
		o.logger.Warn("shutdown_incomplete", "error", err)
		firstErr = err
	}

	// Unblocks a UI still waiting on the relay.
	o.controller.Relay().Close()

	o.logSessionSummary()

	if o.metricsServer != nil {
		if err := o.metricsServer.Shutdown(ctx); err != nil {
			o.logger.Warn("metrics_server_shutdown_error", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Callback handlers

func (o *Orchestrator) onStateChange(oldState, newState execution.State) {
	if o.config.Verbose {
		o.logger.Debug("state_changed", "from", oldState.String(), "to", newState.String())
	}
}

func (o *Orchestrator) onFinish(rep execution.Report) {
	o.history.AddReport(rep)
}

// logSessionSummary logs the collector's session totals.
func (o *Orchestrator) logSessionSummary() {
	summary := o.metrics.GenerateSummary()
	totals, err := metrics.Totals(o.registry)
	if err != nil {
		o.logger.Warn("metrics_gather_failed", "error", err)
	}
	o.logger.Info("session_summary",
		"uptime", summary.Uptime.String(),
		"runs", summary.TotalRuns,
		"output_bytes", int64(totals["script_editor_output_bytes_total"]),
		"input_lines", int64(totals["script_editor_input_lines_total"]),
		"syntax_checks", int64(totals["script_editor_syntax_checks_total"]),
	)
}

// PrintExitSummary writes the session's run history summary to w.
func (o *Orchestrator) PrintExitSummary(w io.Writer) {
	fmt.Fprint(w, stats.FormatSummary(o.history, stats.SummaryConfig{
		Duration:    time.Since(o.startTime),
		Interpreter: o.interpreter.Name(),
		MetricsAddr: o.config.MetricsAddr,
		RecentRuns:  summaryRuns,
	}))
}

// DumpMetrics writes a text exposition snapshot to the -metrics-dump target.
func (o *Orchestrator) DumpMetrics(stdout io.Writer) error {
	switch o.config.MetricsDump {
	case "":
		return nil
	case "-":
		return metrics.WriteText(stdout, o.registry)
	}

	f, err := os.Create(o.config.MetricsDump)
	if err != nil {
		return fmt.Errorf("failed to create metrics dump: %w", err)
	}
	if err := metrics.WriteText(f, o.registry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Controller returns the execution controller for external access.
func (o *Orchestrator) Controller() *execution.Controller {
	return o.controller
}

// Interpreter returns the interpreter runner for external access.
func (o *Orchestrator) Interpreter() *process.Interpreter {
	return o.interpreter
}

// History returns the run history for external access.
func (o *Orchestrator) History() *stats.History {
	return o.history
}

// Metrics returns the metrics collector for external access.
func (o *Orchestrator) Metrics() *metrics.Collector {
	return o.metrics
}

// Registry returns the metrics registry for external access.
func (o *Orchestrator) Registry() *prometheus.Registry {
	return o.registry
}
