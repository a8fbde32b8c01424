package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the bindings of the tree view. It implements help.KeyMap.
type keyMap struct {
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Refit   key.Binding
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	Search  key.Binding
	Focus   key.Binding
	Next    key.Binding
	Prev    key.Binding
	Detail  key.Binding
	Copy    key.Binding
	Help    key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Refit:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "fit")),
		Left:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "scroll left")),
		Right:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "scroll right")),
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "scroll up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "scroll down")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Focus:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "focus")),
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next member")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous member")),
		Detail:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
		Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy element id")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.ZoomIn, k.ZoomOut, k.Refit, k.Next, k.Detail, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut, k.Refit},
		{k.Left, k.Right, k.Up, k.Down},
		{k.Search, k.Focus, k.Next, k.Prev},
		{k.Detail, k.Copy, k.Help, k.Back, k.Quit},
	}
}
