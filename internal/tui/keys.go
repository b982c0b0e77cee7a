package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the editor's key bindings. The function keys mirror the
// toolbar of the desktop editor.
type keyMap struct {
	Run      key.Binding
	Stop     key.Binding
	Syntax   key.Binding
	Format   key.Binding
	Template key.Binding
	Save     key.Binding
	New      key.Binding
	Open     key.Binding
	Clear    key.Binding
	Comment  key.Binding
	Focus    key.Binding
	Indent   key.Binding
	Help     key.Binding
	History  key.Binding
	Back     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Run: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("F5", "run the program"),
		),
		Stop: key.NewBinding(
			key.WithKeys("f6"),
			key.WithHelp("F6", "stop the running program"),
		),
		Syntax: key.NewBinding(
			key.WithKeys("f7"),
			key.WithHelp("F7", "check syntax"),
		),
		Format: key.NewBinding(
			key.WithKeys("f8"),
			key.WithHelp("F8", "format code"),
		),
		Template: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "load the next template"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		New: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new file"),
		),
		Open: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "open a file"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear the terminal"),
		),
		Comment: key.NewBinding(
			key.WithKeys("ctrl+_", "ctrl+/"),
			key.WithHelp("ctrl+/", "toggle comment on the current line"),
		),
		Focus: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "switch between editor and input line"),
		),
		Indent: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "indent four spaces"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		History: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "run history"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back to the editor"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("ctrl+q", "quit"),
		),
	}
}

// helpBindings lists bindings in the order the help view shows them.
func (k keyMap) helpBindings() []key.Binding {
	return []key.Binding{
		k.Run, k.Stop, k.Syntax, k.Format, k.Template,
		k.New, k.Open, k.Save, k.Clear, k.Comment, k.Indent, k.Focus,
		k.Help, k.History, k.Back, k.Quit,
	}
}
