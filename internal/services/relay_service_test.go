package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/latestcomment/team-alert/internal/models"
)

type recordingPeer struct {
	id string

	mu   sync.Mutex
	sent []models.Envelope
}

func newPeer(id string) *recordingPeer { return &recordingPeer{id: id} }

func (p *recordingPeer) ID() string { return p.id }

func (p *recordingPeer) Send(env models.Envelope) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, env)
	return true
}

func (p *recordingPeer) events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.sent))
	for i, env := range p.sent {
		names[i] = env.Event
	}
	return names
}

// last decodes the most recent envelope named event into v.
func (p *recordingPeer) last(t *testing.T, event string, v any) {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.sent) - 1; i >= 0; i-- {
		if p.sent[i].Event == event {
			if err := json.Unmarshal(p.sent[i].Data, v); err != nil {
				t.Fatalf("decode %s: %v", event, err)
			}
			return
		}
	}
	t.Fatalf("peer %s never received %q (got %v)", p.id, event, p.eventsLocked())
}

func (p *recordingPeer) eventsLocked() []string {
	names := make([]string, len(p.sent))
	for i, env := range p.sent {
		names[i] = env.Event
	}
	return names
}

func (p *recordingPeer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}

func newTestService() (*RelayService, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	return NewRelayService(Options{MaxUsers: 50, Clock: mock, Logger: zerolog.Nop()}), mock
}

func connect(s *RelayService, ids ...string) []*recordingPeer {
	peers := make([]*recordingPeer, len(ids))
	for i, id := range ids {
		peers[i] = newPeer(id)
		s.Connect(peers[i])
	}
	return peers
}

func usernames(users []models.Participant) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}

func TestRegisterAddsUsernameOnce(t *testing.T) {
	for _, name := range []string{"Minh", "Chị Diệu", "x", "  padded  "} {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestService()
			connect(s, "c1")
			if err := s.Register("c1", name); err != nil {
				t.Fatalf("Register: %v", err)
			}
			count := 0
			for _, u := range s.RosterSnapshot() {
				if u.Username == strings.TrimSpace(name) {
					count++
				}
			}
			if count != 1 {
				t.Fatalf("username %q appears %d times", name, count)
			}
		})
	}
}

func TestRegisterTwiceOverwrites(t *testing.T) {
	s, _ := newTestService()
	connect(s, "c1", "c2")
	_ = s.Register("c1", "Hiếu")
	_ = s.Register("c2", "Phúc")
	_ = s.Register("c1", "Quí")

	got := usernames(s.RosterSnapshot())
	want := []string{"Quí", "Phúc"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("roster = %v, want %v", got, want)
	}
}

func TestRegisterNotifiesCallerAndOthers(t *testing.T) {
	s, _ := newTestService()
	peers := connect(s, "c1", "c2", "c3")
	_ = s.Register("c2", "Thái")
	for _, p := range peers {
		p.reset()
	}

	if err := s.Register("c1", "Minh"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := peers[0].events(); fmt.Sprint(got) != "[registered]" {
		t.Fatalf("caller events = %v", got)
	}
	var reg models.RegisteredPayload
	peers[0].last(t, models.EventRegistered, &reg)
	if reg.UserID != "c1" || reg.Username != "Minh" {
		t.Fatalf("registered payload = %+v", reg)
	}
	if fmt.Sprint(usernames(reg.Users)) != "[Thái Minh]" {
		t.Fatalf("registered users = %v", usernames(reg.Users))
	}

	for _, p := range peers[1:] {
		if got := p.events(); fmt.Sprint(got) != "[user-joined users-update]" {
			t.Fatalf("peer %s events = %v", p.id, got)
		}
		var joined models.PresencePayload
		p.last(t, models.EventUserJoined, &joined)
		if joined.Username != "Minh" || len(joined.Users) != 2 {
			t.Fatalf("user-joined payload = %+v", joined)
		}
	}
}

func TestRegisterRejectsBlankUsername(t *testing.T) {
	s, _ := newTestService()
	peers := connect(s, "c1", "c2")

	err := s.Register("c1", "   ")
	if !errors.Is(err, models.ErrUsernameRequired) {
		t.Fatalf("err = %v, want ErrUsernameRequired", err)
	}
	var e models.ErrorPayload
	peers[0].last(t, models.EventError, &e)
	if e.Message != "Username is required" {
		t.Fatalf("error message = %q", e.Message)
	}
	if got := peers[1].events(); len(got) != 0 {
		t.Fatalf("other peer should hear nothing, got %v", got)
	}
	if n := len(s.RosterSnapshot()); n != 0 {
		t.Fatalf("roster has %d entries", n)
	}
}

func TestSendAlertFromUnregisteredIsDropped(t *testing.T) {
	s, _ := newTestService()
	peers := connect(s, "c1", "c2")
	_ = s.Register("c2", "Anh Tấn")
	for _, p := range peers {
		p.reset()
	}

	err := s.SendAlert("c1", models.SendAlertPayload{Message: "Update data 1", BossDirection: models.Boss1})
	if !errors.Is(err, models.ErrNotRegistered) {
		t.Fatalf("err = %v, want ErrNotRegistered", err)
	}
	if got := peers[0].events(); fmt.Sprint(got) != "[error]" {
		t.Fatalf("sender events = %v", got)
	}
	if got := peers[1].events(); len(got) != 0 {
		t.Fatalf("bystander received %v", got)
	}
	if n := len(s.RecentAlerts(0)); n != 0 {
		t.Fatalf("history has %d alerts", n)
	}
}

func TestSendAlertBroadcastsToEveryoneIncludingSender(t *testing.T) {
	s, mock := newTestService()
	peers := connect(s, "c1", "c2", "c3")
	_ = s.Register("c1", "Chi Trâm")
	for _, p := range peers {
		p.reset()
	}

	mock.Add(1500 * time.Millisecond)
	err := s.SendAlert("c1", models.SendAlertPayload{Message: "Update data 2", BossDirection: models.Boss2, IsFlipped: true})
	if err != nil {
		t.Fatalf("SendAlert: %v", err)
	}

	for _, p := range peers {
		var a models.AlertEvent
		p.last(t, models.EventAlert, &a)
		want := models.AlertEvent{
			Sender:          "Chi Trâm",
			SenderID:        "c1",
			Timestamp:       mock.Now().UnixMilli(),
			Message:         "Update data 2",
			BossDirection:   models.Boss2,
			SenderIsFlipped: true,
		}
		if a != want {
			t.Fatalf("peer %s got %+v, want %+v", p.id, a, want)
		}
	}
}

func TestSendAlertDefaults(t *testing.T) {
	s, _ := newTestService()
	connect(s, "c1")
	_ = s.Register("c1", "Minh")

	if err := s.SendAlert("c1", models.SendAlertPayload{}); err != nil {
		t.Fatalf("SendAlert: %v", err)
	}
	got := s.RecentAlerts(1)[0]
	if got.Message != models.DefaultAlertMessage || got.BossDirection != models.Boss1 {
		t.Fatalf("defaults not applied: %+v", got)
	}

	err := s.SendAlert("c1", models.SendAlertPayload{BossDirection: "boss9"})
	if !errors.Is(err, models.ErrInvalidBossDirection) {
		t.Fatalf("err = %v, want ErrInvalidBossDirection", err)
	}
	if n := len(s.RecentAlerts(0)); n != 1 {
		t.Fatalf("invalid alert entered history, len = %d", n)
	}
}

func TestHistoryReplyAfterOverflow(t *testing.T) {
	s, mock := newTestService()
	peers := connect(s, "c1")
	_ = s.Register("c1", "Phúc")

	for i := 1; i <= 57; i++ {
		mock.Add(time.Second)
		_ = s.SendAlert("c1", models.SendAlertPayload{Message: fmt.Sprintf("alert %d", i)})
	}
	if n := len(s.RecentAlerts(0)); n != DefaultHistorySize {
		t.Fatalf("history len = %d, want %d", n, DefaultHistorySize)
	}

	s.History("c1")
	var reply models.AlertHistoryPayload
	peers[0].last(t, models.EventAlertHistory, &reply)
	if len(reply.Alerts) != models.HistoryReplyLimit {
		t.Fatalf("reply has %d alerts", len(reply.Alerts))
	}
	for i, a := range reply.Alerts {
		if want := fmt.Sprintf("alert %d", 57-i); a.Message != want {
			t.Fatalf("alerts[%d] = %q, want %q", i, a.Message, want)
		}
		if i > 0 && a.Timestamp >= reply.Alerts[i-1].Timestamp {
			t.Fatalf("alerts not strictly newest first at %d", i)
		}
	}
}

func TestHistoryReplyIsEmptyArray(t *testing.T) {
	s, _ := newTestService()
	peers := connect(s, "c1")
	s.History("c1")

	peers[0].mu.Lock()
	data := string(peers[0].sent[0].Data)
	peers[0].mu.Unlock()
	if data != `{"alerts":[]}` {
		t.Fatalf("history reply = %s", data)
	}
}

func TestHeartbeatAck(t *testing.T) {
	s, mock := newTestService()
	peers := connect(s, "c1", "c2")

	s.Heartbeat("c1")
	var ack models.HeartbeatAckPayload
	peers[0].last(t, models.EventHeartbeatAck, &ack)
	if ack.Timestamp != mock.Now().UnixMilli() {
		t.Fatalf("ack timestamp = %d", ack.Timestamp)
	}
	if got := peers[1].events(); len(got) != 0 {
		t.Fatalf("heartbeat leaked to %v", got)
	}
	if n := len(s.RosterSnapshot()); n != 0 {
		t.Fatalf("heartbeat changed the roster")
	}
}

func TestDisconnectRegistered(t *testing.T) {
	s, _ := newTestService()
	peers := connect(s, "c1", "c2", "c3")
	_ = s.Register("c1", "Hiếu")
	_ = s.Register("c2", "Quí")
	for _, p := range peers {
		p.reset()
	}

	s.Disconnect("c1", "transport close")

	if got := peers[0].events(); len(got) != 0 {
		t.Fatalf("departed peer received %v", got)
	}
	for _, p := range peers[1:] {
		if got := p.events(); fmt.Sprint(got) != "[user-left users-update]" {
			t.Fatalf("peer %s events = %v", p.id, got)
		}
		var left models.PresencePayload
		p.last(t, models.EventUserLeft, &left)
		if left.Username != "Hiếu" || fmt.Sprint(usernames(left.Users)) != "[Quí]" {
			t.Fatalf("user-left payload = %+v", left)
		}
	}
}

func TestDisconnectUnregisteredIsQuiet(t *testing.T) {
	s, _ := newTestService()
	peers := connect(s, "c1", "c2")
	_ = s.Register("c2", "Minh")
	peers[1].reset()

	s.Disconnect("c1", "ping timeout")
	if got := peers[1].events(); len(got) != 0 {
		t.Fatalf("unexpected broadcast %v", got)
	}
	if got := usernames(s.RosterSnapshot()); fmt.Sprint(got) != "[Minh]" {
		t.Fatalf("roster = %v", got)
	}
}

func TestDispatchRoutesAndRejectsMalformed(t *testing.T) {
	s, _ := newTestService()
	peers := connect(s, "c1")

	reg, _ := models.NewEnvelope(models.EventRegister, models.RegisterPayload{Username: "Thái"})
	if err := s.Dispatch("c1", reg); err != nil {
		t.Fatalf("Dispatch register: %v", err)
	}
	if got := usernames(s.RosterSnapshot()); fmt.Sprint(got) != "[Thái]" {
		t.Fatalf("roster = %v", got)
	}

	bad := models.Envelope{Event: models.EventSendAlert, Data: json.RawMessage(`"nope"`)}
	if err := s.Dispatch("c1", bad); !errors.Is(err, models.ErrMalformedMessage) {
		t.Fatalf("err = %v, want ErrMalformedMessage", err)
	}
	var e models.ErrorPayload
	peers[0].last(t, models.EventError, &e)
	if e.Message != models.ErrMalformedMessage.Error() {
		t.Fatalf("error payload = %+v", e)
	}

	if err := s.Dispatch("c1", models.Envelope{Event: "dance"}); err != nil {
		t.Fatalf("unknown events are ignored, got %v", err)
	}
}

func TestHealthStatus(t *testing.T) {
	s, mock := newTestService()
	connect(s, "c1", "c2")
	_ = s.Register("c1", "Minh")

	mock.Add(90 * time.Second)
	h := s.HealthStatus()
	if h.Status != "healthy" || h.ConnectedUsers != 1 || h.Uptime != 90 {
		t.Fatalf("health = %+v", h)
	}
	if h.Timestamp != "2026-03-02T09:01:30Z" {
		t.Fatalf("timestamp = %q", h.Timestamp)
	}
}
