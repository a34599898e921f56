// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Ask submits the typed question.
	Ask key.Binding

	// Up scrolls the transcript up.
	Up key.Binding

	// Down scrolls the transcript down.
	Down key.Binding

	// ToggleSources shows or hides source citations.
	ToggleSources key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
		Ask: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ask"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "scroll down"),
		),
		ToggleSources: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle sources"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status line.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Ask, k.ToggleSources, k.Quit}
}

// FullHelp returns the full list of keybindings.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Ask, k.ToggleSources},
		{k.Up, k.Down},
		{k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
