package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-script-editor/internal/editor"
	"github.com/randomizedcoder/go-script-editor/internal/execution"
	"github.com/randomizedcoder/go-script-editor/internal/logging"
	"github.com/randomizedcoder/go-script-editor/internal/process"
	"github.com/randomizedcoder/go-script-editor/internal/relay"
	"github.com/randomizedcoder/go-script-editor/internal/stats"
	"github.com/randomizedcoder/go-script-editor/internal/timeseries"
)

const (
	// maxTerminalBytes caps the terminal panel's scrollback.
	maxTerminalBytes = 1 << 20

	maxCursorSteps = 1 << 16
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to sample the output rate.
type TickMsg time.Time

// relayBatchMsg carries every relay message that was pending when the
// wait returned, in publish order.
type relayBatchMsg struct {
	msgs []relay.Message
}

// relayClosedMsg means the relay will deliver nothing more.
type relayClosedMsg struct{}

// syntaxMsg carries a finished syntax check.
type syntaxMsg struct {
	result process.SyntaxResult
	err    error
}

// =============================================================================
// Model
// =============================================================================

// Executor is the part of execution.Controller the TUI drives.
type Executor interface {
	Run(code string) (string, error)
	Stop() error
	SendInput(text string) error
	State() execution.State
	Relay() *relay.Relay
}

// SyntaxChecker compiles code without running it.
type SyntaxChecker interface {
	CheckSyntax(ctx context.Context, code string) (process.SyntaxResult, error)
}

// SyntaxRecorder receives syntax check results for metrics.
type SyntaxRecorder interface {
	SyntaxChecked(ok bool, err error)
}

type view int

const (
	viewEditor view = iota
	viewHelp
	viewHistory
)

type focus int

const (
	focusEditor focus = iota
	focusInput
)

// promptMode selects what the input line's Enter does.
type promptMode int

const (
	promptProgram promptMode = iota // send to the running program
	promptSaveAs                    // file name for the buffer
	promptOpen                      // file to load into the buffer
)

// promptLabels are the input line prompt and placeholder per mode.
var promptLabels = map[promptMode][2]string{
	promptProgram: {"> ", "input for the running program"},
	promptSaveAs:  {"Save as: ", "file name"},
	promptOpen:    {"Open: ", "file name"},
}

// Model represents the TUI state.
type Model struct {
	// Collaborators
	exec      Executor
	checker   SyntaxChecker
	recorder  SyntaxRecorder
	templates *editor.TemplateSet
	history   *stats.History
	doc       *editor.Document
	logger    *slog.Logger

	interpreter string
	keys        keyMap

	// Widgets
	editor   textarea.Model
	terminal viewport.Model
	input    textinput.Model

	// Terminal panel contents and the run they belong to.
	// pending holds text appended since the last flush.
	output  string
	pending []string
	runID   string
	rate    *timeseries.RateTracker

	// Current state
	view          view
	focus         focus
	prompt        promptMode
	status        string
	templateIndex int
	startTime     time.Time

	// Display options
	width  int
	height int

	// Quit flag
	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	Executor    Executor
	Checker     SyntaxChecker  // nil disables F7
	Recorder    SyntaxRecorder // optional
	Templates   *editor.TemplateSet
	History     *stats.History
	Document    *editor.Document
	Code        string // initial buffer
	Interpreter string
	Logger      *slog.Logger
}

// New creates a new TUI model.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	doc := cfg.Document
	if doc == nil {
		doc = editor.NewDocument()
	}
	templates := cfg.Templates
	if templates == nil {
		templates = editor.NewTemplateSet(editor.BuiltinTemplates(), nil)
	}
	history := cfg.History
	if history == nil {
		history = stats.NewHistory(stats.DefaultHistorySize)
	}

	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetValue(cfg.Code)
	ta.Focus()

	ti := textinput.New()
	ti.Placeholder = "input for the running program"
	ti.Prompt = "> "

	m := Model{
		exec:        cfg.Executor,
		checker:     cfg.Checker,
		recorder:    cfg.Recorder,
		templates:   templates,
		history:     history,
		doc:         doc,
		logger:      logger,
		interpreter: cfg.Interpreter,
		keys:        defaultKeyMap(),
		editor:      ta,
		terminal:    viewport.New(80, 8),
		input:       ti,
		rate:        timeseries.NewRateTracker(),
		startTime:   time.Now(),
		width:       80,
		height:      24,
		status:      "Ready",
	}
	m.resize()
	return m
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	// Note: tea.WithAltScreen() is passed when creating the program,
	// so we don't need tea.EnterAltScreen here.
	return tea.Batch(textarea.Blink, waitForRelay(m.exec.Relay()), tickCmd())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case relayBatchMsg:
		for _, rm := range msg.msgs {
			m.handleRelay(rm)
		}
		m.flush()
		return m, waitForRelay(m.exec.Relay())

	case relayClosedMsg:
		return m, nil

	case TickMsg:
		m.rate.Sample()
		return m, tickCmd()

	case syntaxMsg:
		m.handleSyntax(msg)
		return m, nil
	}

	return m.updateFocused(msg)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case viewHelp:
		return m.renderHelpView()
	case viewHistory:
		return m.renderHistoryView()
	default:
		return m.renderEditorView()
	}
}

// =============================================================================
// Key Handling
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.view = toggleView(m.view, viewHelp)
		return m, nil
	case key.Matches(msg, m.keys.History):
		m.view = toggleView(m.view, viewHistory)
		return m, nil
	}

	// Secondary views only close.
	if m.view != viewEditor {
		if key.Matches(msg, m.keys.Back) {
			m.view = viewEditor
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Run):
		return m.run()
	case key.Matches(msg, m.keys.Stop):
		m.stop()
		return m, nil
	case key.Matches(msg, m.keys.Syntax):
		return m, m.checkSyntax()
	case key.Matches(msg, m.keys.Format):
		m.editor.SetValue(editor.Format(m.editor.Value()))
		m.status = "Code formatted"
		return m, nil
	case key.Matches(msg, m.keys.Template):
		m.loadNextTemplate()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		return m.save()
	case key.Matches(msg, m.keys.New):
		m.newDocument()
		return m.setFocus(focusEditor)
	case key.Matches(msg, m.keys.Open):
		return m.beginPrompt(promptOpen, "Enter a file to open")
	case key.Matches(msg, m.keys.Clear):
		m.clearTerminal()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		return m.toggleFocus()
	case key.Matches(msg, m.keys.Back) && m.prompt != promptProgram:
		m.cancelPrompt()
		return m.setFocus(focusEditor)
	}

	if m.focus == focusEditor {
		switch {
		case key.Matches(msg, m.keys.Comment):
			m.toggleComment()
			return m, nil
		case key.Matches(msg, m.keys.Indent):
			m.editor.InsertString("    ")
			return m, nil
		}
	}

	if m.focus == focusInput && msg.Type == tea.KeyEnter {
		return m.submitInput()
	}

	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused widget.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusInput:
		m.input, cmd = m.input.Update(msg)
	default:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func toggleView(current, target view) view {
	if current == target {
		return viewEditor
	}
	return target
}

// =============================================================================
// Actions
// =============================================================================

func (m Model) run() (tea.Model, tea.Cmd) {
	if m.prompt != promptProgram {
		m.cancelPrompt()
	}

	code := m.editor.Value()
	id, err := m.exec.Run(code)
	switch {
	case errors.Is(err, execution.ErrEmptySource):
		m.status = "Nothing to run"
		return m, nil
	case errors.Is(err, execution.ErrBusy):
		m.status = "A program is already running"
		return m, nil
	}

	m.runID = id
	m.rate.Reset()
	m.clearTerminal()
	m.appendNotice(fmt.Sprintf("Running code at %s...\n", time.Now().Format("15:04:05")))
	if err != nil {
		m.appendStyled(relay.KindError, "Error: "+err.Error()+"\n")
		m.flush()
		m.status = "Run failed"
		return m, nil
	}
	m.flush()

	m.status = "Running"
	return m.setFocus(focusInput)
}

func (m *Model) stop() {
	if err := m.exec.Stop(); errors.Is(err, execution.ErrNotRunning) {
		m.status = "No program is running"
	}
}

func (m Model) checkSyntax() tea.Cmd {
	if m.checker == nil {
		return nil
	}
	code := m.editor.Value()
	checker := m.checker
	return func() tea.Msg {
		result, err := checker.CheckSyntax(context.Background(), code)
		return syntaxMsg{result: result, err: err}
	}
}

func (m *Model) handleSyntax(msg syntaxMsg) {
	if m.recorder != nil {
		m.recorder.SyntaxChecked(msg.result.OK, msg.err)
	}
	if msg.err != nil {
		m.status = "Syntax check failed: " + msg.err.Error()
		return
	}
	if msg.result.OK {
		m.status = msg.result.String()
		return
	}
	m.status = "Syntax error: " + msg.result.String()
}

func (m *Model) loadNextTemplate() {
	t, ok := m.templates.At(m.templateIndex)
	if !ok {
		m.status = "No templates"
		return
	}
	m.templateIndex++
	m.editor.SetValue(t.Code)
	m.status = "Template: " + t.Name
}

func (m Model) save() (tea.Model, tea.Cmd) {
	err := m.doc.Save(m.editor.Value())
	if errors.Is(err, editor.ErrNoPath) {
		return m.beginPrompt(promptSaveAs, "Enter a file name")
	}
	if err != nil {
		m.logger.Error("save_failed", "path", m.doc.Path, "error", err)
		m.status = "Save failed: " + err.Error()
		return m, nil
	}
	m.status = "Saved " + m.doc.Name()
	return m, nil
}

// newDocument empties the buffer and forgets the file name.
func (m *Model) newDocument() {
	if m.prompt != promptProgram {
		m.endPrompt("")
	}
	m.doc = editor.NewDocument()
	m.editor.SetValue("")
	m.status = "New file"
}

// openDocument replaces the buffer with the file at path.
func (m *Model) openDocument(path string) {
	doc, text, err := editor.Open(path)
	if err != nil {
		m.logger.Error("open_failed", "path", path, "error", err)
		m.status = "Open failed: " + err.Error()
		return
	}
	m.doc = doc
	m.editor.SetValue(text)
	m.status = "Opened " + doc.Name()
}

// beginPrompt turns the input line into a file name prompt.
func (m Model) beginPrompt(mode promptMode, status string) (tea.Model, tea.Cmd) {
	m.setPrompt(mode)
	m.input.SetValue("")
	m.status = status
	return m.setFocus(focusInput)
}

func (m *Model) cancelPrompt() {
	switch m.prompt {
	case promptSaveAs:
		m.endPrompt("Save cancelled")
	case promptOpen:
		m.endPrompt("Open cancelled")
	}
}

// endPrompt returns the input line to the running program.
// An empty status leaves the status bar alone.
func (m *Model) endPrompt(status string) {
	m.setPrompt(promptProgram)
	m.input.SetValue("")
	if status != "" {
		m.status = status
	}
}

func (m *Model) setPrompt(mode promptMode) {
	m.prompt = mode
	labels := promptLabels[mode]
	m.input.Prompt = labels[0]
	m.input.Placeholder = labels[1]
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	m.input.SetValue("")

	if m.prompt != promptProgram {
		name := strings.TrimSpace(text)
		if name == "" {
			m.cancelPrompt()
			return m.setFocus(focusEditor)
		}
		mode := m.prompt
		m.endPrompt("")
		switch mode {
		case promptSaveAs:
			if err := m.doc.SaveAs(name, m.editor.Value()); err != nil {
				m.logger.Error("save_failed", "path", name, "error", err)
				m.status = "Save failed: " + err.Error()
			} else {
				m.status = "Saved " + m.doc.Name()
			}
		case promptOpen:
			m.openDocument(name)
		}
		return m.setFocus(focusEditor)
	}

	if err := m.exec.SendInput(text); errors.Is(err, execution.ErrNotRunning) {
		m.status = "No program is running"
	}
	return m, nil
}

func (m *Model) toggleComment() {
	row := m.editor.Line()
	m.editor.SetValue(editor.ToggleCommentAt(m.editor.Value(), row))
	// SetValue leaves the cursor on the last line.
	for i := 0; m.editor.Line() > row && i < maxCursorSteps; i++ {
		m.editor.CursorUp()
	}
}

func (m Model) toggleFocus() (tea.Model, tea.Cmd) {
	if m.focus == focusEditor {
		return m.setFocus(focusInput)
	}
	return m.setFocus(focusEditor)
}

func (m Model) setFocus(f focus) (tea.Model, tea.Cmd) {
	m.focus = f
	if f == focusInput {
		m.editor.Blur()
		return m, m.input.Focus()
	}
	m.input.Blur()
	return m, m.editor.Focus()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.exec.State().IsActive() {
		_ = m.exec.Stop()
	}
	m.quitting = true
	return m, tea.Quit
}

// =============================================================================
// Relay Handling
// =============================================================================

func (m *Model) handleRelay(msg relay.Message) {
	// Leftovers of a run the terminal was already cleared for.
	if msg.RunID() != m.runID {
		return
	}

	switch msg := msg.(type) {
	case relay.Output:
		if msg.Kind == relay.KindStdout {
			m.rate.Add(len(msg.Text))
		}
		m.appendStyled(msg.Kind, msg.Text)

	case relay.Finished:
		m.ensureNewline()
		m.appendLine(GetOutcomeStyle(msg.Outcome).Render(msg.Banner()))
		m.status = msg.Banner()
		if m.prompt == promptProgram && m.focus == focusInput {
			m.focus = focusEditor
			m.input.Blur()
			m.editor.Focus()
		}
	}
}

func (m *Model) clearTerminal() {
	m.output = ""
	m.pending = nil
	m.terminal.SetContent("")
	m.terminal.GotoTop()
}

func (m *Model) appendNotice(text string) {
	m.appendStyled(relay.KindNotice, text)
}

func (m *Model) appendStyled(kind relay.Kind, text string) {
	if style, ok := GetKindStyle(kind); ok {
		text = styleLines(style.Render, text)
	}
	m.appendRaw(text)
}

func (m *Model) appendLine(line string) {
	m.appendRaw(line + "\n")
}

func (m *Model) ensureNewline() {
	last := m.output
	if n := len(m.pending); n > 0 {
		last = m.pending[n-1]
	}
	if last != "" && !strings.HasSuffix(last, "\n") {
		m.appendRaw("\n")
	}
}

// appendRaw queues text for the terminal panel; flush renders it.
func (m *Model) appendRaw(text string) {
	if text != "" {
		m.pending = append(m.pending, text)
	}
}

// flush moves pending text into the scrollback, trims it to
// maxTerminalBytes and re-renders the terminal panel once.
func (m *Model) flush() {
	if len(m.pending) == 0 {
		return
	}

	// Only the newest maxTerminalBytes can survive the trim.
	start, keep := len(m.pending), 0
	for start > 0 && keep < maxTerminalBytes {
		start--
		keep += len(m.pending[start])
	}

	var b strings.Builder
	if keep < maxTerminalBytes {
		b.Grow(len(m.output) + keep)
		b.WriteString(m.output)
	} else {
		b.Grow(keep)
	}
	for _, text := range m.pending[start:] {
		b.WriteString(text)
	}
	m.pending = nil

	out := b.String()
	if len(out) > maxTerminalBytes {
		out = out[len(out)-maxTerminalBytes/2:]
		if i := strings.IndexByte(out, '\n'); i >= 0 {
			out = out[i+1:]
		}
	}
	m.output = out
	m.terminal.SetContent(m.output)
	m.terminal.GotoBottom()
}

// styleLines renders each line separately so a partial line (a prompt)
// stays open for the text that follows it.
func styleLines(render func(...string) string, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// Layout
// =============================================================================

// resize distributes the window between editor and terminal.
// Fixed rows: header, status bar, input line and two borders per panel.
func (m *Model) resize() {
	inner := m.width - 2
	if inner < 20 {
		inner = 20
	}
	free := m.height - 7
	if free < 6 {
		free = 6
	}
	termHeight := free / 3
	editorHeight := free - termHeight - 2

	m.editor.SetWidth(inner)
	m.editor.SetHeight(editorHeight)
	m.terminal.Width = inner
	m.terminal.Height = termHeight
	m.input.Width = inner - 12
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after one second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// waitForRelay returns a command that blocks for the next relay message
// and delivers it together with everything queued behind it.
func waitForRelay(r *relay.Relay) tea.Cmd {
	return func() tea.Msg {
		msg, err := r.Next(context.Background())
		if err != nil {
			return relayClosedMsg{}
		}
		return relayBatchMsg{msgs: append([]relay.Message{msg}, r.Drain()...)}
	}
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the editor started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Code returns the editor buffer.
func (m Model) Code() string {
	return m.editor.Value()
}

// Terminal returns the terminal panel contents.
func (m Model) Terminal() string {
	return m.output
}

// OutputRate returns the running program's recent output rate in bytes/s.
func (m Model) OutputRate() float64 {
	return m.rate.Stats().Short
}

// Status returns the status bar message.
func (m Model) Status() string {
	return m.status
}
