package perspective

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/latestcomment/team-alert/internal/models"
)

// ViewHistorySize bounds the viewer's list of rendered alerts.
const ViewHistorySize = 50

// NotificationTitle is the desktop notification title for alerts.
const NotificationTitle = "Data Syncing..."

// AlertView is an alert as this viewer sees it: Message carries the
// viewer's side appended to the sender's text.
type AlertView struct {
	models.AlertEvent
	Direction Direction
	Self      bool
}

// Notification is a desktop notification request.
type Notification struct {
	Title string
	Body  string
}

// Outcome is everything the host should do for one received alert. The
// view is always rendered in-app; sound and notification are policy.
type Outcome struct {
	View         AlertView
	PlaySound    bool
	Notify       bool
	Notification Notification
}

type Config struct {
	Identity       string
	Seating        Seating
	SoundEnabled   bool
	Clock          clock.Clock
	Cooldown       time.Duration
	SnoozeDuration time.Duration

	// OnMuteChange is called after every mute change, see Snooze.
	OnMuteChange func(muted, expired bool)
}

// Engine holds one viewer's perspective and alert policy.
type Engine struct {
	identity string
	flipped  bool
	cooldown *Cooldown
	snooze   *Snooze

	mu           sync.Mutex
	soundEnabled bool
	views        []AlertView
}

func NewEngine(cfg Config) *Engine {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	identity := strings.TrimSpace(cfg.Identity)
	return &Engine{
		identity:     identity,
		flipped:      cfg.Seating.IsFlipped(identity),
		cooldown:     NewCooldown(clk, cfg.Cooldown),
		snooze:       NewSnooze(clk, cfg.SnoozeDuration, cfg.OnMuteChange),
		soundEnabled: cfg.SoundEnabled,
	}
}

func (e *Engine) Identity() string { return e.identity }

// Flipped reports whether the viewer sits on the far side.
func (e *Engine) Flipped() bool { return e.flipped }

// Side is the side boss comes from for this viewer, used to label the
// local alert buttons.
func (e *Engine) Side(boss models.BossDirection) Direction {
	return Naive(boss, e.flipped)
}

func (e *Engine) SetSoundEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.soundEnabled = enabled
}

// CheckCooldown returns a *CooldownError if an alert now would be spam.
func (e *Engine) CheckCooldown() error {
	return e.cooldown.Check()
}

// Outgoing builds the send-alert request. The request carries no side
// text; receivers compute their own.
func (e *Engine) Outgoing(boss models.BossDirection) models.SendAlertPayload {
	return models.SendAlertPayload{
		Message:       "Update data " + boss.Number(),
		BossDirection: boss,
		IsFlipped:     e.flipped,
	}
}

// Sent starts the cooldown window after an alert reached the relay.
func (e *Engine) Sent() { e.cooldown.Record() }

// ToggleMute flips the snooze and returns the new state.
func (e *Engine) ToggleMute() bool { return e.snooze.Toggle() }

func (e *Engine) Muted() bool { return e.snooze.Muted() }

// Close cancels a pending auto-unmute.
func (e *Engine) Close() { e.snooze.Stop() }

// Receive renders a live alert and decides on sound and notification.
// Muting silences both; alerts from the viewer never notify.
func (e *Engine) Receive(ev models.AlertEvent) Outcome {
	view := e.render(ev)
	muted := e.snooze.Muted()

	e.mu.Lock()
	e.push(view)
	sound := e.soundEnabled && !muted
	e.mu.Unlock()

	out := Outcome{
		View:      view,
		PlaySound: sound,
		Notify:    !view.Self && !muted,
	}
	if out.Notify {
		out.Notification = Notification{
			Title: NotificationTitle,
			Body:  ev.Sender + ": " + view.Message,
		}
	}
	return out
}

// Backfill renders alerts fetched from the relay history without sound or
// notification. Alerts already in the view list are skipped.
func (e *Engine) Backfill(events []models.AlertEvent) []AlertView {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[alertKey]bool, len(e.views))
	for _, v := range e.views {
		seen[keyOf(v.AlertEvent)] = true
	}
	for _, ev := range events {
		if seen[keyOf(ev)] {
			continue
		}
		seen[keyOf(ev)] = true
		e.views = append(e.views, e.render(ev))
	}
	sort.SliceStable(e.views, func(i, j int) bool {
		return e.views[i].Timestamp > e.views[j].Timestamp
	})
	if len(e.views) > ViewHistorySize {
		e.views = e.views[:ViewHistorySize]
	}
	return e.viewsLocked()
}

// Views returns the rendered alerts, newest first.
func (e *Engine) Views() []AlertView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewsLocked()
}

func (e *Engine) render(ev models.AlertEvent) AlertView {
	boss, err := models.ParseBossDirection(string(ev.BossDirection))
	if err != nil {
		boss = models.Boss1
	}
	ev.BossDirection = boss
	dir := Resolve(boss, ev.SenderIsFlipped, e.flipped)
	ev.Message = ev.Message + " " + string(dir)
	return AlertView{
		AlertEvent: ev,
		Direction:  dir,
		Self:       ev.Sender == e.identity,
	}
}

func (e *Engine) push(v AlertView) {
	e.views = append(e.views, AlertView{})
	copy(e.views[1:], e.views)
	e.views[0] = v
	if len(e.views) > ViewHistorySize {
		e.views = e.views[:ViewHistorySize]
	}
}

func (e *Engine) viewsLocked() []AlertView {
	out := make([]AlertView, len(e.views))
	copy(out, e.views)
	return out
}

type alertKey struct {
	senderID  string
	timestamp int64
}

func keyOf(ev models.AlertEvent) alertKey {
	return alertKey{senderID: ev.SenderID, timestamp: ev.Timestamp}
}
