// Package tui is the terminal front end of the desktop client: status,
// roster, recent alerts and a big direction overlay, driven by app events.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/latestcomment/team-alert/internal/app"
	"github.com/latestcomment/team-alert/internal/client"
	"github.com/latestcomment/team-alert/internal/models"
	"github.com/latestcomment/team-alert/internal/perspective"
	"github.com/latestcomment/team-alert/internal/settings"
)

const (
	toastDuration   = 3 * time.Second
	overlayDuration = 2 * time.Second
	flashDuration   = time.Second
	alertRows       = 10
)

// Controller is the part of *app.App the view drives.
type Controller interface {
	TriggerAlert(boss models.BossDirection) error
	ToggleMute() bool
	Events() <-chan app.Event
	Settings() settings.Settings
}

type eventMsg struct{ event app.Event }

type clearToastMsg struct{ seq int }

type clearOverlayMsg struct{ seq int }

type clearFlashMsg struct{ seq int }

// Model implements tea.Model.
type Model struct {
	ctrl   Controller
	events <-chan app.Event
	keys   KeyMap
	theme  Theme

	settings settings.Settings
	flipped  bool
	width    int

	status app.StatusChanged
	users  []models.Participant
	alerts []perspective.AlertView
	muted  bool

	toast      *app.Toast
	toastSeq   int
	overlay    *perspective.AlertView
	overlaySeq int
	flash      models.BossDirection
	flashSeq   int
	large      *app.LargeAlert
}

func NewModel(ctrl Controller) Model {
	s := ctrl.Settings()
	return Model{
		ctrl:     ctrl,
		events:   ctrl.Events(),
		keys:     NewKeyMap(s),
		theme:    DefaultTheme,
		settings: s,
		flipped:  s.Seating.IsFlipped(s.Username),
		status:   app.StatusChanged{State: client.StateIdle, Text: "Starting..."},
	}
}

func (m Model) Init() tea.Cmd {
	return listenForAppEvent(m.events)
}

// listenForAppEvent blocks until the app emits an event and delivers it
// as an eventMsg.
func listenForAppEvent(events <-chan app.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{event: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Dismiss):
			m.large = nil
		case key.Matches(msg, m.keys.Boss1):
			return m, m.trigger(models.Boss1)
		case key.Matches(msg, m.keys.Boss2):
			return m, m.trigger(models.Boss2)
		case key.Matches(msg, m.keys.Mute):
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.ToggleMute()
				return nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case eventMsg:
		var cmd tea.Cmd
		m, cmd = m.apply(msg.event)
		return m, tea.Batch(cmd, listenForAppEvent(m.events))

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
	case clearOverlayMsg:
		if msg.seq == m.overlaySeq {
			m.overlay = nil
		}
	case clearFlashMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
	}
	return m, nil
}

// trigger sends the alert off the UI goroutine; the outcome comes back as
// a toast event.
func (m Model) trigger(boss models.BossDirection) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		_ = ctrl.TriggerAlert(boss)
		return nil
	}
}

func (m Model) apply(ev app.Event) (Model, tea.Cmd) {
	switch ev := ev.(type) {
	case app.StatusChanged:
		m.status = ev
	case app.RosterChanged:
		m.users = ev.Users
	case app.AlertsLoaded:
		m.alerts = ev.Views
	case app.AlertReceived:
		m.alerts = append([]perspective.AlertView{ev.View}, m.alerts...)
		if len(m.alerts) > perspective.ViewHistorySize {
			m.alerts = m.alerts[:perspective.ViewHistorySize]
		}
		view := ev.View
		m.overlay = &view
		m.overlaySeq++
		seq := m.overlaySeq
		return m, tea.Tick(overlayDuration, func(time.Time) tea.Msg { return clearOverlayMsg{seq: seq} })
	case app.AlertSent:
		m.flash = ev.Boss
		m.flashSeq++
		seq := m.flashSeq
		return m, tea.Tick(flashDuration, func(time.Time) tea.Msg { return clearFlashMsg{seq: seq} })
	case app.Toast:
		m.toast = &ev
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{seq: seq} })
	case app.LargeAlert:
		m.large = &ev
	case app.MuteChanged:
		m.muted = ev.Muted
	case app.SettingsChanged:
		m.settings = ev.Settings
		m.keys = NewKeyMap(ev.Settings)
		m.flipped = ev.Settings.Seating.IsFlipped(ev.Settings.Username)
	}
	return m, nil
}

func (m Model) View() string {
	sections := []string{m.header(), "", m.buttons(), ""}
	if m.large != nil {
		sections = append(sections, m.largeAlert(), "")
	}
	if m.overlay != nil {
		sections = append(sections, m.bigArrow(), "")
	}
	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top, m.roster(), "    ", m.recent()),
		"",
		m.footer(),
	)
	if m.toast != nil {
		sections = append(sections, m.toastLine())
	}
	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width > 0 {
		view = lipgloss.NewStyle().MaxWidth(m.width).Render(view)
	}
	return view
}

func (m Model) header() string {
	t := m.theme
	dot := t.Disconnected
	switch m.status.State {
	case client.StateConnecting:
		dot = t.Connecting
	case client.StateConnectedUnregistered, client.StateRegistered:
		dot = t.Connected
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(t.Header).Render("TEAM ALERT")
	status := lipgloss.NewStyle().Foreground(dot).Render("●") + " " +
		lipgloss.NewStyle().Foreground(t.NormalText).Render(m.status.Text)
	online := lipgloss.NewStyle().Foreground(t.FaintText).Render(fmt.Sprintf("Online: %d", len(m.users)))

	parts := []string{title, status, online}
	if m.muted {
		parts = append(parts, lipgloss.NewStyle().Foreground(t.ToastError).Render("🔕 Muted"))
	}
	return strings.Join(parts, "   ")
}

func (m Model) buttons() string {
	b1 := m.button(models.Boss1, m.keys.Boss1, m.theme.Boss1)
	b2 := m.button(models.Boss2, m.keys.Boss2, m.theme.Boss2)
	// Far-side seats see the bosses swapped, so the buttons swap too.
	if m.flipped {
		b1, b2 = b2, b1
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, b1, "  ", b2)
}

func (m Model) button(boss models.BossDirection, binding key.Binding, color lipgloss.Color) string {
	side := perspective.Naive(boss, m.flipped)
	label := fmt.Sprintf("[%s] Boss %s  %s %s", binding.Help().Key, boss.Number(), side.Arrow(), side.Label())

	style := lipgloss.NewStyle().
		Padding(0, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Foreground(color)
	if m.flash == boss {
		style = style.Reverse(true)
	}
	return style.Render(label)
}

func (m Model) bigArrow() string {
	v := m.overlay
	text := fmt.Sprintf("%s   %s SIDE   %s", v.Direction.Arrow(), v.Direction.Label(), v.Direction.Arrow())
	from := fmt.Sprintf("from %s (Boss %s)", v.Sender, v.BossDirection.Number())
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.Overlay).
		Border(lipgloss.ThickBorder()).
		BorderForeground(m.theme.Overlay).
		Padding(1, 6).
		Align(lipgloss.Center).
		Render(text + "\n" + from)
}

func (m Model) largeAlert() string {
	body := lipgloss.NewStyle().Bold(true).Render(m.large.Title) + "\n" +
		m.large.Body + "\n\n" +
		lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(m.keys.Dismiss.Help().Key+" to dismiss")
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(m.theme.Disconnected).
		Padding(1, 4).
		Render(body)
}

func (m Model) roster() string {
	t := m.theme
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(t.Header).Render("Online")}
	if len(m.users) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.FaintText).Render("No one online"))
	}
	for _, u := range m.users {
		name := u.Username
		if name == m.settings.Username {
			name += " (you)"
		}
		lines = append(lines, "• "+name)
	}
	return lipgloss.NewStyle().Width(24).Render(strings.Join(lines, "\n"))
}

func (m Model) recent() string {
	t := m.theme
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(t.Header).Render("Recent alerts")}
	if len(m.alerts) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.FaintText).Render("No alerts yet"))
	}
	for i, v := range m.alerts {
		if i == alertRows {
			break
		}
		color := t.Boss1
		if v.BossDirection == models.Boss2 {
			color = t.Boss2
		}
		when := lipgloss.NewStyle().Foreground(t.FaintText).Render(v.Time().Format("15:04:05"))
		lines = append(lines, fmt.Sprintf("%s  %s  %s", when, v.Sender, lipgloss.NewStyle().Foreground(color).Render(v.Message)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) footer() string {
	var hints []string
	for _, b := range m.keys.Hints() {
		if !b.Enabled() {
			continue
		}
		hints = append(hints, b.Help().Key+" = "+b.Help().Desc)
	}
	return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(strings.Join(hints, "   "))
}

func (m Model) toastLine() string {
	color, mark := m.theme.ToastSuccess, "✓"
	if m.toast.Kind == app.ToastError {
		color, mark = m.theme.ToastError, "✗"
	}
	return lipgloss.NewStyle().Foreground(color).Render(mark + " " + m.toast.Message)
}
