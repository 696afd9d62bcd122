// Package app connects the relay session, the perspective engine and the
// host platform, and reports everything the UI shows as Events.
package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/latestcomment/team-alert/internal/client"
	"github.com/latestcomment/team-alert/internal/models"
	"github.com/latestcomment/team-alert/internal/perspective"
	"github.com/latestcomment/team-alert/internal/settings"
)

// Notifier shows desktop notifications.
type Notifier interface {
	ShowNotification(title, body string) error
}

// Sound plays the alert sound.
type Sound interface {
	Play() error
}

// Tray shows the online count outside the main view.
type Tray interface {
	UpdateOnlineCount(n int)
}

// Platform is the host's side effects. Nil members are skipped, except a
// nil Notifier, which counts as a failed notification.
type Platform struct {
	Notifier Notifier
	Sound    Sound
	Tray     Tray
}

type Options struct {
	Platform Platform
	Clock    clock.Clock
	Logger   zerolog.Logger

	// Session is the base session config; username and server URL come
	// from settings.
	Session client.Config
	Dialer  client.Dialer

	SnoozeDuration time.Duration
	EventBuffer    int
}

// App is one running desktop client.
type App struct {
	opts   Options
	events chan Event

	mu       sync.Mutex
	ctx      context.Context
	settings settings.Settings
	session  *client.Session
	engine   *perspective.Engine
}

func New(s settings.Settings, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Session == (client.Config{}) {
		opts.Session = client.DefaultConfig()
	}
	if opts.SnoozeDuration <= 0 {
		opts.SnoozeDuration = perspective.DefaultSnooze
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	return &App{
		opts:     opts,
		events:   make(chan Event, opts.EventBuffer),
		settings: s,
	}
}

// Events delivers UI updates. The channel is never closed.
func (a *App) Events() <-chan Event { return a.events }

func (a *App) Settings() settings.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// Start builds the engine and connects. Without a username it stays idle
// and reports that settings are incomplete.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	a.ctx = ctx
	s := a.settings
	a.mu.Unlock()
	return a.startSession(s)
}

// Close stops the session and any pending snooze timer.
func (a *App) Close() {
	sess, engine := a.swap(nil, nil)
	if sess != nil {
		sess.Close()
	}
	if engine != nil {
		engine.Close()
	}
}

// TriggerAlert reports a boss. Checks run in order: cooldown, connection,
// username. Each failure is shown as an error toast and returned.
func (a *App) TriggerAlert(boss models.BossDirection) error {
	sess, engine := a.current()
	if engine == nil || sess == nil {
		a.toast(ToastError, client.ErrNotConnected.Message)
		return client.ErrNotConnected
	}

	if err := engine.CheckCooldown(); err != nil {
		a.toast(ToastError, err.Error())
		return err
	}
	if !sess.State().Connected() {
		a.toast(ToastError, client.ErrNotConnected.Message)
		return client.ErrNotConnected
	}
	if engine.Identity() == "" {
		a.toast(ToastError, client.ErrUsernameMissing.Message)
		return client.ErrUsernameMissing
	}

	payload := engine.Outgoing(boss)
	if err := sess.SendAlert(a.context(), payload); err != nil {
		a.opts.Logger.Warn().Err(err).Str("boss", string(boss)).Msg("alert not sent")
		a.toast(ToastError, client.ErrNotConnected.Message)
		return err
	}
	engine.Sent()

	a.opts.Logger.Info().Str("boss", string(boss)).Bool("flipped", payload.IsFlipped).Msg("alert sent")
	a.emit(AlertSent{Boss: boss})
	a.toast(ToastSuccess, fmt.Sprintf("Alert sent: Boss %s!", boss.Number()))
	return nil
}

// ToggleMute flips the snooze and returns the new state.
func (a *App) ToggleMute() bool {
	_, engine := a.current()
	if engine == nil {
		return false
	}
	muted := engine.ToggleMute()
	if muted {
		a.toast(ToastError, fmt.Sprintf("Notifications snoozed for %d min", int(a.opts.SnoozeDuration.Minutes())))
	} else {
		a.toast(ToastSuccess, "Notifications unmuted")
	}
	return muted
}

func (a *App) Muted() bool {
	_, engine := a.current()
	return engine != nil && engine.Muted()
}

// SettingsUpdated applies saved settings. A new identity, server or
// seating replaces the session and engine; other changes apply in place.
func (a *App) SettingsUpdated(next settings.Settings) error {
	a.mu.Lock()
	prev := a.settings
	a.settings = next
	engine := a.engine
	started := a.ctx != nil
	a.mu.Unlock()

	a.emit(SettingsChanged{Settings: next})

	restart := prev.NeedsRestart(next) || !maps.Equal(prev.Seating, next.Seating)
	if !restart || !started {
		if engine != nil {
			engine.SetSoundEnabled(next.SoundEnabled)
		}
		return nil
	}

	a.opts.Logger.Info().Str("username", next.Username).Str("server", next.ServerURL).Msg("settings changed, restarting session")
	a.Close()
	return a.startSession(next)
}

func (a *App) startSession(s settings.Settings) error {
	engine := perspective.NewEngine(perspective.Config{
		Identity:       s.Username,
		Seating:        s.Seating,
		SoundEnabled:   s.SoundEnabled,
		Clock:          a.opts.Clock,
		SnoozeDuration: a.opts.SnoozeDuration,
		OnMuteChange:   a.muteChanged,
	})

	cfg := a.opts.Session
	cfg.Username = s.Username
	cfg.ServerURL = s.ServerURL
	opts := []client.Option{client.WithClock(a.opts.Clock), client.WithLogger(a.opts.Logger)}
	if a.opts.Dialer != nil {
		opts = append(opts, client.WithDialer(a.opts.Dialer))
	}
	sess := client.NewSession(cfg, opts...)
	a.wire(sess, engine)
	a.swap(sess, engine)

	err := sess.Start(a.context())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrUsernameMissing):
		a.opts.Logger.Warn().Msg("no username configured")
		a.emit(StatusChanged{State: client.StateIdle, Text: client.ErrUsernameMissing.Message})
		return nil
	default:
		a.opts.Logger.Error().Err(err).Str("server", s.ServerURL).Msg("session not started")
		a.emit(StatusChanged{State: client.StateIdle, Text: "Connection error - Check server"})
		return err
	}
}

func (a *App) wire(sess *client.Session, engine *perspective.Engine) {
	username := sess.Username()

	sess.OnState(func(ev client.StateEvent) {
		switch ev.NewState {
		case client.StateConnecting:
			a.emit(StatusChanged{State: ev.NewState, Text: "Connecting to server..."})
		case client.StateConnectedUnregistered:
			a.emit(StatusChanged{State: ev.NewState, Text: "Connected"})
		case client.StateRegistered:
			a.emit(StatusChanged{State: ev.NewState, Text: "Connected as " + username})
		case client.StateDisconnected:
			text := "Disconnected - Reconnecting..."
			if ev.OldState == client.StateConnecting {
				text = "Connection error - Check server"
			}
			a.emit(StatusChanged{State: ev.NewState, Text: text})
		}
	})

	sess.OnRoster(func(users []models.Participant) {
		if a.opts.Platform.Tray != nil {
			a.opts.Platform.Tray.UpdateOnlineCount(len(users))
		}
		a.emit(RosterChanged{Users: users})
	})

	sess.OnPresence(func(ev client.PresenceEvent) {
		if ev.Joined {
			a.toast(ToastSuccess, ev.Username+" joined")
		} else {
			a.toast(ToastSuccess, ev.Username+" left")
		}
	})

	sess.OnAlert(func(ev models.AlertEvent) {
		a.deliver(engine.Receive(ev))
	})

	sess.OnHistory(func(alerts []models.AlertEvent) {
		a.emit(AlertsLoaded{Views: engine.Backfill(alerts)})
	})

	sess.OnError(func(err error) {
		msg := "An error occurred"
		var e *client.Error
		if errors.As(err, &e) && e.Message != "" {
			msg = e.Message
		}
		a.toast(ToastError, msg)
	})
}

// deliver carries out one alert outcome on the platform.
func (a *App) deliver(out perspective.Outcome) {
	a.opts.Logger.Info().
		Str("sender", out.View.Sender).
		Str("boss", string(out.View.BossDirection)).
		Str("side", string(out.View.Direction)).
		Bool("self", out.View.Self).
		Msg("alert received")

	a.emit(AlertReceived{View: out.View})

	if out.PlaySound && a.opts.Platform.Sound != nil {
		if err := a.opts.Platform.Sound.Play(); err != nil {
			a.opts.Logger.Warn().Err(err).Msg("alert sound failed")
		}
	}

	if !out.Notify {
		return
	}
	err := errors.New("notifications unavailable")
	if a.opts.Platform.Notifier != nil {
		err = a.opts.Platform.Notifier.ShowNotification(out.Notification.Title, out.Notification.Body)
	}
	if err != nil {
		a.opts.Logger.Warn().Err(client.WrapError(client.KindNotification, "desktop notification failed", err)).Msg("showing in-app alert")
		a.emit(LargeAlert{Title: out.Notification.Title, Body: out.Notification.Body})
	}
}

func (a *App) muteChanged(muted, expired bool) {
	a.emit(MuteChanged{Muted: muted})
	if expired {
		a.toast(ToastSuccess, "Snooze ended - Notifications active")
	}
}

func (a *App) toast(kind ToastKind, msg string) {
	a.emit(Toast{Kind: kind, Message: msg})
}

// emit never blocks; a UI that stops reading loses events.
func (a *App) emit(ev Event) {
	select {
	case a.events <- ev:
	default:
		a.opts.Logger.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("ui event dropped")
	}
}

func (a *App) current() (*client.Session, *perspective.Engine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session, a.engine
}

// swap installs a session and engine and returns the previous pair.
func (a *App) swap(sess *client.Session, engine *perspective.Engine) (*client.Session, *perspective.Engine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	prevSess, prevEngine := a.session, a.engine
	a.session, a.engine = sess, engine
	return prevSess, prevEngine
}

func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}
