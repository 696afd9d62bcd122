package models

import "encoding/json"

// Event names on the wire.
const (
	EventRegister   = "register"
	EventSendAlert  = "send-alert"
	EventHeartbeat  = "heartbeat"
	EventGetHistory = "get-history"

	EventRegistered   = "registered"
	EventError        = "error"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventUsersUpdate  = "users-update"
	EventAlert        = "alert"
	EventHeartbeatAck = "heartbeat-ack"
	EventAlertHistory = "alert-history"
)

// HistoryReplyLimit is the number of alerts returned by get-history.
const HistoryReplyLimit = 20

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope for event. A nil data
// produces an envelope without payload.
func NewEnvelope(event string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

type RegisterPayload struct {
	Username string `json:"username"`
}

type RegisteredPayload struct {
	UserID   string        `json:"userId"`
	Username string        `json:"username"`
	Users    []Participant `json:"users"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PresencePayload is sent with user-joined and user-left.
type PresencePayload struct {
	Username string        `json:"username"`
	Users    []Participant `json:"users"`
}

type UsersUpdatePayload struct {
	Users []Participant `json:"users"`
}

type SendAlertPayload struct {
	Message       string        `json:"message"`
	BossDirection BossDirection `json:"bossDirection"`
	IsFlipped     bool          `json:"isFlipped"`
}

type HeartbeatAckPayload struct {
	Timestamp int64 `json:"timestamp"`
}

type AlertHistoryPayload struct {
	Alerts []AlertEvent `json:"alerts"`
}
