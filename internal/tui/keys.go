package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the keyboard bindings. Gestures on the board use the mouse.
type keyMap struct {
	Quit   key.Binding
	Cancel key.Binding
	Resync key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel drag"),
		),
		Resync: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "resync"),
		),
	}
}

// help renders the bindings for the status line.
func (k keyMap) help() string {
	parts := []string{"[drag] place", "[right-click] delete"}
	for _, b := range []key.Binding{k.Cancel, k.Resync, k.Quit} {
		h := b.Help()
		parts = append(parts, "["+h.Key+"] "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
