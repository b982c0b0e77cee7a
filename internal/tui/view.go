package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-script-editor/internal/stats"
)

// historyRows is how many recent runs the history view lists.
const historyRows = 15

// =============================================================================
// Main View Rendering
// =============================================================================

// renderEditorView renders the editing pane, terminal panel and input line.
func (m Model) renderEditorView() string {
	editorBox := boxStyle
	inputBox := boxStyle
	if m.focus == focusEditor {
		editorBox = focusedBoxStyle
	} else {
		inputBox = focusedBoxStyle
	}

	terminal := lipgloss.JoinVertical(lipgloss.Left,
		m.terminal.View(),
		m.input.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		editorBox.Render(m.editor.View()),
		inputBox.Render(terminal),
		m.renderStatusBar(),
	)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	name := m.doc.Name()
	if m.doc.Modified(m.editor.Value()) {
		name += " *"
	}

	header := fmt.Sprintf(" go-script-editor │ %s │ %s ", name, m.interpreter)
	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Status Bar
// =============================================================================

func (m Model) renderStatusBar() string {
	left := GetStateLabel(m.exec.State()) + "  " + m.status
	if m.exec.State().IsActive() {
		left += dimStyle.Render("  output " + formatRate(m.OutputRate()))
	}
	right := footerStyle.Render("F5 run │ F6 stop │ F1 help")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// =============================================================================
// Help View
// =============================================================================

func (m Model) renderHelpView() string {
	rows := []string{sectionHeaderStyle.Render("Keys")}
	for _, b := range m.keys.helpBindings() {
		h := b.Help()
		rows = append(rows, RenderKeyHelp(h.Key, h.Desc))
	}

	rows = append(rows, "", sectionHeaderStyle.Render("Templates"))
	for _, name := range m.templates.Names() {
		rows = append(rows, "  "+name)
	}

	rows = append(rows, "", footerStyle.Render("esc or F1 to return"))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		boxStyle.Width(m.width-2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

// =============================================================================
// History View
// =============================================================================

func (m Model) renderHistoryView() string {
	t := m.history.Totals()

	rows := []string{
		sectionHeaderStyle.Render("Run History"),
		RenderKeyValue("Runs", stats.FormatNumber(t.Runs)),
		RenderKeyValue("Finished", stats.FormatNumber(t.Finished)),
		RenderKeyValue("Errored", stats.FormatNumber(t.Errored)),
		RenderKeyValue("Stopped", stats.FormatNumber(t.Stopped)),
	}
	if t.Runs > 0 {
		rows = append(rows,
			RenderKeyValue("Duration P50", stats.FormatMs(t.DurationP50)),
			RenderKeyValue("Duration P95", stats.FormatMs(t.DurationP95)),
			RenderKeyValue("Duration Max", stats.FormatMs(t.DurationMax)),
		)
	}

	rows = append(rows, "", sectionHeaderStyle.Render("Recent"))
	recent := m.history.Recent(historyRows)
	if len(recent) == 0 {
		rows = append(rows, dimStyle.Render("  no runs yet"))
	}
	for _, rec := range recent {
		rows = append(rows, "  "+GetOutcomeStyle(rec.Outcome).Render(stats.FormatRecord(rec)))
	}
	if len(recent) > 0 && len(recent[0].Tail) > 0 {
		rows = append(rows, "", sectionHeaderStyle.Render(lastOutputTitle(recent[0])))
		for _, line := range recent[0].Tail {
			rows = append(rows, "  "+mutedStyle.Render(line))
		}
	}

	rows = append(rows, "", footerStyle.Render(fmt.Sprintf("esc or F2 to return │ session %s", stats.FormatDuration(m.Elapsed()))))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		boxStyle.Width(m.width-2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

// lastOutputTitle heads the newest run's output tail.
func lastOutputTitle(rec stats.Record) string {
	switch rec.ErrorLines {
	case 0:
		return "Last Output"
	case 1:
		return "Last Output (1 error line)"
	default:
		return fmt.Sprintf("Last Output (%d error lines)", rec.ErrorLines)
	}
}

// formatRate formats a byte rate with B/s, KB/s or MB/s.
func formatRate(bytesPerSec float64) string {
	switch {
	case bytesPerSec >= 1_000_000:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/1_000_000)
	case bytesPerSec >= 1_000:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/1_000)
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	}
}
