package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the browser keybindings.
type KeyMap struct {
	Quit   key.Binding
	Filter key.Binding
	Submit key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Sort   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
	}
}

// ListHelp returns the bindings shown while browsing the list.
func (k *KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Up, k.Down, k.Open, k.Sort, k.Quit}
}

// InputHelp returns the bindings shown while editing the search.
func (k *KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back}
}

// DetailHelp returns the bindings shown on the detail pane.
func (k *KeyMap) DetailHelp() []key.Binding {
	return []key.Binding{k.Back, k.Quit}
}
