package models

import "time"

// Participant is a registered connection in the roster.
type Participant struct {
	ConnectionID string    `json:"connectionId"`
	Username     string    `json:"username"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// PublicParticipant is the roster entry exposed on the HTTP surface,
// without the connection identity.
type PublicParticipant struct {
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connectedAt"`
}

func (p Participant) Public() PublicParticipant {
	return PublicParticipant{Username: p.Username, ConnectedAt: p.ConnectedAt}
}
