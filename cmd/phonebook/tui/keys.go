package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Up     key.Binding
	Down   key.Binding
	Delete key.Binding
	Yes    key.Binding
	No     key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "add"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// keyHelp adapts the bindings relevant to the current focus to help.KeyMap.
type keyHelp struct {
	bindings []key.Binding
}

func (h keyHelp) ShortHelp() []key.Binding { return h.bindings }

func (h keyHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.bindings} }

func (m Model) helpKeys() keyHelp {
	k := m.keys
	switch {
	case m.pending != nil:
		return keyHelp{[]key.Binding{k.Yes, k.No, k.Quit}}
	case m.focus == focusList:
		return keyHelp{[]key.Binding{k.Up, k.Down, k.Delete, k.Next, k.Quit}}
	case m.focus == focusSearch:
		return keyHelp{[]key.Binding{k.Next, k.Prev, k.Quit}}
	default:
		return keyHelp{[]key.Binding{k.Submit, k.Next, k.Prev, k.Quit}}
	}
}
