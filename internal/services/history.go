package services

import "github.com/latestcomment/team-alert/internal/models"

// DefaultHistorySize is how many alerts the relay remembers.
const DefaultHistorySize = 50

// History keeps the most recent alerts, newest first, evicting the oldest
// once full. Not safe for concurrent use.
type History struct {
	alerts []models.AlertEvent
	size   int
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{alerts: make([]models.AlertEvent, 0, size), size: size}
}

// Push prepends an alert.
func (h *History) Push(a models.AlertEvent) {
	if len(h.alerts) < h.size {
		h.alerts = append(h.alerts, models.AlertEvent{})
	}
	copy(h.alerts[1:], h.alerts[:len(h.alerts)-1])
	h.alerts[0] = a
}

// Recent returns up to n alerts, newest first. n <= 0 returns all.
func (h *History) Recent(n int) []models.AlertEvent {
	if n <= 0 || n > len(h.alerts) {
		n = len(h.alerts)
	}
	out := make([]models.AlertEvent, n)
	copy(out, h.alerts[:n])
	return out
}

func (h *History) Len() int {
	return len(h.alerts)
}
