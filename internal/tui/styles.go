// Package tui provides the terminal editor front end.
//
// The TUI uses Bubble Tea for the application framework, Bubbles for the
// editing, terminal and input widgets, and Lipgloss for styling.
// It displays:
// - An editing pane with line numbers
// - The terminal panel the running script writes to
// - An input line whose submissions go to the script's stdin
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-script-editor/internal/execution"
	"github.com/randomizedcoder/go-script-editor/internal/relay"
)

// =============================================================================
// Color Palette
// =============================================================================

// Colors based on a modern dark theme
var (
	// Primary colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorAccent    = lipgloss.Color("#F59E0B") // Amber

	// Status colors
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorInfo    = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorTextDim   = lipgloss.Color("#6B7280") // Dark gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

// =============================================================================
// Base Styles
// =============================================================================

var (
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	// Title styles
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)
)

// =============================================================================
// Status Indicator Styles
// =============================================================================

var (
	statusOK = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	statusWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	statusError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	statusInfo = lipgloss.NewStyle().
			Foreground(colorInfo).
			Bold(true)
)

// =============================================================================
// Layout Styles
// =============================================================================

var (
	// Panel border; the focused panel gets the accent color.
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	focusedBoxStyle = boxStyle.
			BorderForeground(colorAccent)

	// Header style
	headerStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1)

	// Section header style
	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colorBorder)

	// Footer style
	footerStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

// =============================================================================
// Value Styles
// =============================================================================

var (
	valueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Width(16)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Width(10)

	echoStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)
)

// =============================================================================
// Execution State Indicator
// =============================================================================

// GetStateStyle returns the style for an execution state.
func GetStateStyle(s execution.State) lipgloss.Style {
	switch s {
	case execution.StateRunning:
		return statusInfo
	case execution.StateFinished:
		return statusOK
	case execution.StateStopped:
		return statusWarning
	case execution.StateErrored:
		return statusError
	default:
		return mutedStyle
	}
}

// GetStateLabel returns a styled state indicator, e.g. "● running".
func GetStateLabel(s execution.State) string {
	return GetStateStyle(s).Render("● " + s.String())
}

// =============================================================================
// Terminal Text Styles
// =============================================================================

// GetOutcomeStyle returns the style for a completion banner.
func GetOutcomeStyle(o relay.Outcome) lipgloss.Style {
	switch o {
	case relay.OutcomeFinished:
		return statusOK
	case relay.OutcomeStopped:
		return statusWarning
	default:
		return statusError
	}
}

// GetKindStyle returns the style for a terminal chunk. Plain child output
// is left unstyled.
func GetKindStyle(k relay.Kind) (lipgloss.Style, bool) {
	switch k {
	case relay.KindEcho:
		return echoStyle, true
	case relay.KindError:
		return statusError, true
	case relay.KindNotice:
		return dimStyle, true
	default:
		return lipgloss.Style{}, false
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// RenderKeyValue renders a label-value pair.
func RenderKeyValue(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label+":"),
		valueStyle.Render(value),
	)
}

// RenderKeyHelp renders one key binding line of the help view.
func RenderKeyHelp(key, desc string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		keyStyle.Render(key),
		mutedStyle.Render(desc),
	)
}
