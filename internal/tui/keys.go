package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/latestcomment/team-alert/internal/settings"
)

// shortcutKeys maps settings shortcut names to the key strings bubbletea
// reports. Numpad operators arrive as their plain characters.
var shortcutKeys = map[string]string{
	"numdiv":  "/",
	"nummult": "*",
	"numadd":  "+",
	"numsub":  "-",
	"f1":      "f1",
	"f2":      "f2",
	"f3":      "f3",
	"f4":      "f4",
}

// KeyMap holds the bindings for the alert view.
type KeyMap struct {
	Boss1   key.Binding
	Boss2   key.Binding
	Mute    key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

// NewKeyMap binds the shortcuts chosen in settings.
func NewKeyMap(s settings.Settings) KeyMap {
	return KeyMap{
		Boss1:   shortcut(s.Boss1Shortcut, "Boss 1"),
		Boss2:   shortcut(s.Boss2Shortcut, "Boss 2"),
		Mute:    shortcut(s.MuteShortcut, "Mute"),
		Dismiss: key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "Dismiss")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "Quit")),
	}
}

func shortcut(name, help string) key.Binding {
	k, ok := shortcutKeys[name]
	if !ok {
		return key.NewBinding(key.WithDisabled())
	}
	return key.NewBinding(key.WithKeys(k), key.WithHelp(settings.ShortcutLabel(name), help))
}

// Hints are the bindings shown in the footer.
func (k KeyMap) Hints() []key.Binding {
	return []key.Binding{k.Boss1, k.Boss2, k.Mute, k.Quit}
}
