package models

import "time"

// DefaultAlertMessage is used when a sender leaves the message empty.
const DefaultAlertMessage = "🚨 BOSS ALERT! 🚨"

// BossDirection names one of the two fixed approach directions.
type BossDirection string

const (
	Boss1 BossDirection = "boss1"
	Boss2 BossDirection = "boss2"
)

func (b BossDirection) Valid() bool {
	return b == Boss1 || b == Boss2
}

// Number returns "1" or "2", as shown in alert texts and labels.
func (b BossDirection) Number() string {
	if b == Boss2 {
		return "2"
	}
	return "1"
}

// ParseBossDirection accepts "boss1"/"boss2" and treats an empty value as
// boss1, matching what clients send when no direction was chosen.
func ParseBossDirection(s string) (BossDirection, error) {
	switch BossDirection(s) {
	case "":
		return Boss1, nil
	case Boss1, Boss2:
		return BossDirection(s), nil
	}
	return "", ErrInvalidBossDirection
}

// AlertEvent is one broadcast alert. It is never modified after the relay
// creates it.
type AlertEvent struct {
	Sender          string        `json:"sender"`
	SenderID        string        `json:"senderId"`
	Timestamp       int64         `json:"timestamp"` // unix milliseconds, server clock
	Message         string        `json:"message"`
	BossDirection   BossDirection `json:"bossDirection"`
	SenderIsFlipped bool          `json:"senderIsFlipped"`
}

func (a AlertEvent) Time() time.Time {
	return time.UnixMilli(a.Timestamp)
}
