package models

import (
	"encoding/json"
	"testing"
)

func TestEnvelopeWireShape(t *testing.T) {
	env, err := NewEnvelope(EventSendAlert, SendAlertPayload{
		Message:       "Update data 2",
		BossDirection: Boss2,
		IsFlipped:     true,
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"event":"send-alert","data":{"message":"Update data 2","bossDirection":"boss2","isFlipped":true}}`
	if string(raw) != want {
		t.Fatalf("wire shape\n got %s\nwant %s", raw, want)
	}
}

func TestEnvelopeWithoutPayload(t *testing.T) {
	env, err := NewEnvelope(EventHeartbeat, nil)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	raw, _ := json.Marshal(env)
	if string(raw) != `{"event":"heartbeat"}` {
		t.Fatalf("unexpected %s", raw)
	}

	var p RegisterPayload
	if err := env.Decode(&p); err != nil {
		t.Fatalf("Decode of empty payload: %v", err)
	}
}

func TestParseBossDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    BossDirection
		wantErr bool
	}{
		{"", Boss1, false},
		{"boss1", Boss1, false},
		{"boss2", Boss2, false},
		{"boss3", "", true},
		{"BOSS1", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBossDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseBossDirection(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseBossDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
