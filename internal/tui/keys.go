package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle   key.Binding
	Stop     key.Binding
	Step     key.Binding
	Faster   key.Binding
	Slower   key.Binding
	Live     key.Binding
	Summary  key.Binding
	Settings key.Binding
	Help     key.Binding
	Back     key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "start/pause"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop"),
		),
		Step: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tap step"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "runner faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "runner slower"),
		),
		Live: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "live"),
		),
		Summary: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "summary"),
		),
		Settings: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "settings"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stop, k.Step, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stop, k.Step, k.Faster, k.Slower},
		{k.Live, k.Summary, k.Settings, k.Help, k.Back, k.Refresh, k.Quit},
	}
}
