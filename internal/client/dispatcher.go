package client

import "github.com/latestcomment/team-alert/internal/models"

// PresenceEvent reports a teammate joining or leaving.
type PresenceEvent struct {
	Username string
	Joined   bool
}

// dispatcher holds the session callbacks. Callbacks are set before Start
// and invoked from the session's read goroutine.
type dispatcher struct {
	onState    func(StateEvent)
	onRoster   func([]models.Participant)
	onPresence func(PresenceEvent)
	onAlert    func(models.AlertEvent)
	onHistory  func([]models.AlertEvent)
	onError    func(error)
}

func (d *dispatcher) state(ev StateEvent) {
	if d.onState != nil {
		d.onState(ev)
	}
}

func (d *dispatcher) roster(users []models.Participant) {
	if d.onRoster != nil {
		d.onRoster(users)
	}
}

func (d *dispatcher) presence(ev PresenceEvent) {
	if d.onPresence != nil {
		d.onPresence(ev)
	}
}

func (d *dispatcher) alert(ev models.AlertEvent) {
	if d.onAlert != nil {
		d.onAlert(ev)
	}
}

func (d *dispatcher) history(alerts []models.AlertEvent) {
	if d.onHistory != nil {
		d.onHistory(alerts)
	}
}

func (d *dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
