package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play     key.Binding
	Vis      key.Binding
	Schedule key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Play: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "play/pause"),
		),
		Vis: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "visualizer"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload schedule"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Vis, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Vis},
		{k.Schedule, k.Help, k.Quit},
	}
}
