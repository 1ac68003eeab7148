package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the viewer's keybindings.
type KeyMap struct {
	Select   key.Binding
	Deselect key.Binding
	Exit     key.Binding
	Toggle   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Select: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "focus body"),
		),
		Deselect: key.NewBinding(
			key.WithKeys("esc", "0"),
			key.WithHelp("esc/0", "deselect"),
		),
		Exit: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "exit view"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "top view"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Deselect, k.Exit, k.Toggle, k.Quit}
}
