package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	heavyRule = "═══════════════════════════════════════════════════════════════════════════════\n"
	lightRule = "───────────────────────────────────────────────────────────────────────────────\n"
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// Duration is how long the editor was open
	Duration time.Duration

	// Interpreter is the configured interpreter command
	Interpreter string

	// MetricsAddr is the Prometheus metrics endpoint address
	MetricsAddr string

	// RecentRuns is how many of the latest runs to list (0 = none)
	RecentRuns int
}

// FormatSummary formats the run history for display when the editor exits.
func FormatSummary(h *History, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(heavyRule)
	b.WriteString("                         go-script-editor Exit Summary\n")
	b.WriteString(heavyRule + "\n")

	fmt.Fprintf(&b, "Session Duration:       %s\n", FormatDuration(cfg.Duration))
	if cfg.Interpreter != "" {
		fmt.Fprintf(&b, "Interpreter:            %s\n", cfg.Interpreter)
	}

	if h == nil || h.Len() == 0 {
		b.WriteString("\n(No programs were run)\n\n")
		writeFooter(&b, cfg)
		return b.String()
	}

	t := h.Totals()
	fmt.Fprintf(&b, "Programs Run:           %s\n\n", FormatNumber(t.Runs))

	b.WriteString(lightRule)
	b.WriteString("                                  Outcomes\n")
	b.WriteString(lightRule + "\n")
	fmt.Fprintf(&b, "  %-20s %8d\n", "Finished", t.Finished)
	fmt.Fprintf(&b, "  %-20s %8d\n", "Errored", t.Errored)
	fmt.Fprintf(&b, "  %-20s %8d\n\n", "Stopped", t.Stopped)

	fmt.Fprintf(&b, "  Duration p50: %-10s p95: %-10s max: %s\n\n",
		FormatMs(t.DurationP50),
		FormatMs(t.DurationP95),
		FormatMs(t.DurationMax),
	)

	exits := h.ExitCodes()
	if len(exits) > 0 {
		b.WriteString(lightRule)
		b.WriteString("                                 Exit Codes\n")
		b.WriteString(lightRule + "\n")

		// Sort exit codes for consistent output
		codes := make([]int, 0, len(exits))
		for code := range exits {
			codes = append(codes, code)
		}
		sort.Ints(codes)

		for _, code := range codes {
			fmt.Fprintf(&b, "  %3d %-16s %d\n", code, exitCodeLabel(code), exits[code])
		}
		b.WriteString("\n")
	}

	if cfg.RecentRuns > 0 {
		b.WriteString(lightRule)
		b.WriteString("                                Recent Runs\n")
		b.WriteString(lightRule + "\n")
		for _, rec := range h.Recent(cfg.RecentRuns) {
			b.WriteString("  " + FormatRecord(rec) + "\n")
		}
		b.WriteString("\n")
	}

	writeFooter(&b, cfg)
	return b.String()
}

func writeFooter(b *strings.Builder, cfg SummaryConfig) {
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}
	b.WriteString(heavyRule)
}

// FormatRecord renders one history line, e.g.
// "14:02:11  errored   code 1    120 ms  3 lines  NameError: ...".
func FormatRecord(rec Record) string {
	line := fmt.Sprintf("%s  %-8s  code %-3d %8s  %d lines",
		rec.Started.Format("15:04:05"),
		rec.Outcome,
		rec.ExitCode,
		FormatMs(rec.Duration),
		rec.OutputLines,
	)
	if rec.LastError != "" {
		line += "  " + truncate(rec.LastError, 60)
	}
	return line
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// exitCodeLabel returns a human-readable label for common exit codes.
func exitCodeLabel(code int) string {
	switch code {
	case 0:
		return "(clean)"
	case 1:
		return "(error)"
	case -1:
		return "(no exit code)"
	case 130:
		return "(SIGINT)"
	case 137:
		return "(SIGKILL)"
	case 143:
		return "(SIGTERM)"
	default:
		return ""
	}
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		// Sub-millisecond, show microseconds
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}
