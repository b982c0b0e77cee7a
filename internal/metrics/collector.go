// Package metrics provides Prometheus metrics for go-script-editor.
//
// Metrics are per-Collector rather than package globals, so each editor
// instance (and each test) owns an isolated set registered on its own
// registry.
package metrics

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/randomizedcoder/go-script-editor/internal/relay"
)

// Collector manages the editor's Prometheus metrics.
// It implements execution.Recorder.
type Collector struct {
	info *prometheus.GaugeVec

	runsStarted  prometheus.Counter
	runsFinished *prometheus.CounterVec
	runsRejected *prometheus.CounterVec
	runExits     *prometheus.CounterVec
	running      prometheus.Gauge
	runDuration  prometheus.Histogram

	outputChunks prometheus.Counter
	outputBytes  prometheus.Counter
	inputLines   prometheus.Counter

	syntaxChecks *prometheus.CounterVec

	// For summary generation
	mu          sync.Mutex
	startTime   time.Time
	totalRuns   int64
	peakRunning int
	active      int
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version     string
	Interpreter string
}

// NewCollector creates a collector on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "script_editor_info",
				Help: "Information about the editor (value always 1)",
			},
			[]string{"version", "interpreter"},
		),
		runsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "script_editor_runs_started_total",
				Help: "Total program runs started",
			},
		),
		runsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "script_editor_runs_finished_total",
				Help: "Total program runs finished, by outcome",
			},
			[]string{"outcome"},
		),
		runsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "script_editor_runs_rejected_total",
				Help: "Run requests rejected before spawning, by reason",
			},
			[]string{"reason"},
		),
		runExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "script_editor_run_exits_total",
				Help: "Program exits by category (success, error, signal, stopped)",
			},
			[]string{"category"},
		),
		running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "script_editor_running",
				Help: "1 while a program is running",
			},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "script_editor_run_duration_seconds",
				Help:    "Wall-clock duration of program runs",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		outputChunks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "script_editor_output_chunks_total",
				Help: "Output chunks relayed to the terminal panel",
			},
		),
		outputBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "script_editor_output_bytes_total",
				Help: "Bytes of program output relayed",
			},
		),
		inputLines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "script_editor_input_lines_total",
				Help: "Input lines sent to running programs",
			},
		),
		syntaxChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "script_editor_syntax_checks_total",
				Help: "Syntax checks by result (ok, error, failed)",
			},
			[]string{"result"},
		),
		startTime: time.Now(),
	}

	registry.MustRegister(
		c.info,
		c.runsStarted,
		c.runsFinished,
		c.runsRejected,
		c.runExits,
		c.running,
		c.runDuration,
		c.outputChunks,
		c.outputBytes,
		c.inputLines,
		c.syntaxChecks,
	)

	c.info.WithLabelValues(cfg.Version, cfg.Interpreter).Set(1)

	return c
}

// =============================================================================
// Event Recording Methods
// =============================================================================

// RunStarted records a run start event.
func (c *Collector) RunStarted() {
	c.runsStarted.Inc()
	c.running.Set(1)

	c.mu.Lock()
	c.totalRuns++
	c.active++
	if c.active > c.peakRunning {
		c.peakRunning = c.active
	}
	c.mu.Unlock()
}

// RunRejected records a run request that never spawned.
func (c *Collector) RunRejected(reason string) {
	c.runsRejected.WithLabelValues(reason).Inc()
}

// OutputChunk records one relayed chunk of n bytes.
func (c *Collector) OutputChunk(n int) {
	c.outputChunks.Inc()
	c.outputBytes.Add(float64(n))
}

// InputLine records one line sent to the child.
func (c *Collector) InputLine() {
	c.inputLines.Inc()
}

// RunFinished records the completion of a run.
func (c *Collector) RunFinished(outcome relay.Outcome, exitCode int, d time.Duration) {
	c.runsFinished.WithLabelValues(outcome.String()).Inc()
	c.runExits.WithLabelValues(exitCategory(outcome, exitCode)).Inc()
	c.runDuration.Observe(d.Seconds())

	c.mu.Lock()
	if c.active > 0 {
		c.active--
	}
	if c.active == 0 {
		c.running.Set(0)
	}
	c.mu.Unlock()
}

// SyntaxChecked records a syntax check. err is a failure to run the check
// at all, as opposed to a syntax error in the buffer.
func (c *Collector) SyntaxChecked(ok bool, err error) {
	result := "error"
	switch {
	case err != nil:
		result = "failed"
	case ok:
		result = "ok"
	}
	c.syntaxChecks.WithLabelValues(result).Inc()
}

// exitCategory buckets an exit code the way the process layer reports them.
func exitCategory(outcome relay.Outcome, exitCode int) string {
	switch {
	case outcome == relay.OutcomeStopped:
		return "stopped"
	case exitCode == 0:
		return "success"
	case exitCode > 128:
		return "signal"
	default:
		return "error"
	}
}

// =============================================================================
// Summary Generation
// =============================================================================

// Summary holds totals for the exit summary.
type Summary struct {
	Uptime      time.Duration
	TotalRuns   int64
	PeakRunning int
}

// GenerateSummary creates a summary of the session.
func (c *Collector) GenerateSummary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Summary{
		Uptime:      time.Since(c.startTime),
		TotalRuns:   c.totalRuns,
		PeakRunning: c.peakRunning,
	}
}

// =============================================================================
// Text dump
// =============================================================================

// WriteText gathers every metric family from g and writes it to w in the
// Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Totals gathers g and sums each counter and gauge family across its label
// sets, keyed by family name. Histograms report their sample count.
func Totals(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	totals := make(map[string]float64, len(families))
	for _, mf := range families {
		totals[mf.GetName()] = familyTotal(mf)
	}
	return totals, nil
}

func familyTotal(mf *dto.MetricFamily) float64 {
	var sum float64
	for _, m := range mf.GetMetric() {
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			sum += m.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			sum += m.GetGauge().GetValue()
		case dto.MetricType_HISTOGRAM:
			sum += float64(m.GetHistogram().GetSampleCount())
		}
	}
	return sum
}
