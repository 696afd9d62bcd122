package app

import (
	"github.com/latestcomment/team-alert/internal/client"
	"github.com/latestcomment/team-alert/internal/models"
	"github.com/latestcomment/team-alert/internal/perspective"
	"github.com/latestcomment/team-alert/internal/settings"
)

// Event is something the UI should show. The concrete types below are
// the only implementations.
type Event interface {
	event()
}

// StatusChanged carries the connection status line.
type StatusChanged struct {
	State client.State
	Text  string
}

// RosterChanged replaces the list of online teammates.
type RosterChanged struct {
	Users []models.Participant
}

// AlertReceived is a live alert, already rendered for this viewer. The UI
// shows it in the list and as a big direction overlay.
type AlertReceived struct {
	View perspective.AlertView
}

// AlertsLoaded replaces the alert list after history was merged in.
type AlertsLoaded struct {
	Views []perspective.AlertView
}

// AlertSent flashes the button for the boss that was just reported.
type AlertSent struct {
	Boss models.BossDirection
}

type ToastKind int

const (
	ToastSuccess ToastKind = iota
	ToastError
)

// Toast is a short message.
type Toast struct {
	Kind    ToastKind
	Message string
}

// LargeAlert is shown in-app when a desktop notification fails.
type LargeAlert struct {
	Title string
	Body  string
}

type MuteChanged struct {
	Muted bool
}

// SettingsChanged carries settings after a save or reload.
type SettingsChanged struct {
	Settings settings.Settings
}

func (StatusChanged) event()   {}
func (RosterChanged) event()   {}
func (AlertReceived) event()   {}
func (AlertsLoaded) event()    {}
func (AlertSent) event()       {}
func (Toast) event()           {}
func (LargeAlert) event()      {}
func (MuteChanged) event()     {}
func (SettingsChanged) event() {}
