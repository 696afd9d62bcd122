package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette, in ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Header     lipgloss.Color
	Border     lipgloss.Color

	Connected    lipgloss.Color
	Connecting   lipgloss.Color
	Disconnected lipgloss.Color

	// Boss 1 is red and boss 2 is blue on every screen.
	Boss1 lipgloss.Color
	Boss2 lipgloss.Color

	ToastSuccess lipgloss.Color
	ToastError   lipgloss.Color
	Overlay      lipgloss.Color
}

var DefaultTheme = Theme{
	NormalText:   lipgloss.Color("252"),
	FaintText:    lipgloss.Color("244"),
	Header:       lipgloss.Color("230"),
	Border:       lipgloss.Color("238"),
	Connected:    lipgloss.Color("42"),
	Connecting:   lipgloss.Color("214"),
	Disconnected: lipgloss.Color("196"),
	Boss1:        lipgloss.Color("160"),
	Boss2:        lipgloss.Color("33"),
	ToastSuccess: lipgloss.Color("42"),
	ToastError:   lipgloss.Color("203"),
	Overlay:      lipgloss.Color("226"),
}
