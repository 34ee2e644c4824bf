// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the progress view's keybindings.
type KeyMap struct {
	// Cancel stops a running pipeline. Pressed twice it quits at once.
	Cancel key.Binding

	// Quit leaves the view once the pipeline has finished.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "enter", "ctrl+c"),
			key.WithHelp("q", "close"),
		),
	}
}

// ShortHelp returns the bindings shown while running or when finished.
func (k *KeyMap) ShortHelp(finished bool) []key.Binding {
	if finished {
		return []key.Binding{k.Quit}
	}
	return []key.Binding{k.Cancel}
}
