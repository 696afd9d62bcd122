package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/latestcomment/team-alert/internal/metrics"
	"github.com/latestcomment/team-alert/internal/models"
)

// Peer is one open connection as seen by the relay. Send must not block:
// delivery is best effort and a false return means the event was dropped.
type Peer interface {
	ID() string
	Send(env models.Envelope) bool
}

// HealthStatus is served on GET /health.
type HealthStatus struct {
	Status         string  `json:"status"`
	Uptime         float64 `json:"uptime"` // seconds
	ConnectedUsers int     `json:"connectedUsers"`
	Timestamp      string  `json:"timestamp"`
}

type Options struct {
	MaxUsers    int
	HistorySize int
	Clock       clock.Clock
	Logger      zerolog.Logger
}

// RelayService owns the roster and the alert history of the single room.
//
// Every operation holds mu for its whole mutate-then-broadcast sequence,
// so the events a peer receives are in the order the mutations happened.
// Peers enqueue without blocking, which keeps the critical section short.
//
// Anyone who can connect may register under any name and alert everyone.
// There is no authentication or rate limiting on the relay.
type RelayService struct {
	mu       sync.Mutex
	peers    map[string]Peer
	roster   *Roster
	history  *History
	clock    clock.Clock
	logger   zerolog.Logger
	maxUsers int
	started  time.Time
}

func NewRelayService(opts Options) *RelayService {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &RelayService{
		peers:    make(map[string]Peer),
		roster:   NewRoster(),
		history:  NewHistory(opts.HistorySize),
		clock:    clk,
		logger:   opts.Logger,
		maxUsers: opts.MaxUsers,
		started:  clk.Now(),
	}
}

// Connect makes p a broadcast target. It does not register a participant.
func (s *RelayService) Connect(p Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.peers[p.ID()] = p
	metrics.ConnectionsActive.Set(float64(len(s.peers)))
	s.logger.Info().Str("connection", p.ID()).Msg("new connection")
	if s.maxUsers > 0 && len(s.peers) > s.maxUsers {
		s.logger.Warn().
			Int("connections", len(s.peers)).
			Int("max_users", s.maxUsers).
			Msg("connection count above configured maximum")
	}
}

// Register adds or replaces the participant for connectionID. The caller
// receives "registered" with the roster; everyone else receives
// "user-joined" followed by "users-update".
func (s *RelayService) Register(connectionID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.TrimSpace(username)
	if username == "" {
		s.reject(connectionID, models.EventRegister, models.ErrUsernameRequired)
		return models.ErrUsernameRequired
	}

	s.roster.Put(models.Participant{
		ConnectionID: connectionID,
		Username:     username,
		ConnectedAt:  s.clock.Now().UTC(),
	})
	users := s.roster.Snapshot()
	metrics.Registrations.Inc()
	metrics.ParticipantsOnline.Set(float64(len(users)))

	s.logger.Info().
		Str("username", username).
		Str("connection", connectionID).
		Msg("user registered")

	if p, ok := s.peers[connectionID]; ok {
		s.emit(p, models.EventRegistered, models.RegisteredPayload{
			UserID:   connectionID,
			Username: username,
			Users:    users,
		})
	}
	s.broadcastExcept(connectionID, models.EventUserJoined, models.PresencePayload{Username: username, Users: users})
	s.broadcastExcept(connectionID, models.EventUsersUpdate, models.UsersUpdatePayload{Users: users})
	return nil
}

// SendAlert records an alert from a registered participant and broadcasts
// it to every connection, the sender included. The sender's own copy is
// its acknowledgement; there is no separate reply.
func (s *RelayService) SendAlert(connectionID string, req models.SendAlertPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.roster.Get(connectionID)
	if !ok {
		s.reject(connectionID, models.EventSendAlert, models.ErrNotRegistered)
		return models.ErrNotRegistered
	}
	direction, err := models.ParseBossDirection(string(req.BossDirection))
	if err != nil {
		s.reject(connectionID, models.EventSendAlert, err)
		return err
	}

	message := req.Message
	if strings.TrimSpace(message) == "" {
		message = models.DefaultAlertMessage
	}
	alert := models.AlertEvent{
		Sender:          sender.Username,
		SenderID:        connectionID,
		Timestamp:       s.clock.Now().UnixMilli(),
		Message:         message,
		BossDirection:   direction,
		SenderIsFlipped: req.IsFlipped,
	}
	s.history.Push(alert)
	metrics.AlertsBroadcast.WithLabelValues(string(direction)).Inc()

	s.logger.Warn().
		Str("username", sender.Username).
		Str("boss_direction", string(direction)).
		Bool("sender_flipped", req.IsFlipped).
		Msgf("ALERT from %s: %s", sender.Username, message)

	s.broadcastExcept("", models.EventAlert, alert)
	return nil
}

// Heartbeat answers a liveness probe.
func (s *RelayService) Heartbeat(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.peers[connectionID]; ok {
		s.emit(p, models.EventHeartbeatAck, models.HeartbeatAckPayload{Timestamp: s.clock.Now().UnixMilli()})
	}
}

// History replies with the most recent alerts, newest first.
func (s *RelayService) History(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.peers[connectionID]; ok {
		s.emit(p, models.EventAlertHistory, models.AlertHistoryPayload{
			Alerts: s.history.Recent(models.HistoryReplyLimit),
		})
	}
}

// Disconnect forgets the connection. If it was registered the remaining
// connections receive "user-left" and "users-update".
func (s *RelayService) Disconnect(connectionID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.peers, connectionID)
	metrics.ConnectionsActive.Set(float64(len(s.peers)))

	user, ok := s.roster.Remove(connectionID)
	if !ok {
		s.logger.Info().Str("connection", connectionID).Str("reason", reason).Msg("unknown user disconnected")
		return
	}
	users := s.roster.Snapshot()
	metrics.ParticipantsOnline.Set(float64(len(users)))

	s.logger.Info().
		Str("username", user.Username).
		Str("connection", connectionID).
		Str("reason", reason).
		Msg("user disconnected")

	s.broadcastExcept("", models.EventUserLeft, models.PresencePayload{Username: user.Username, Users: users})
	s.broadcastExcept("", models.EventUsersUpdate, models.UsersUpdatePayload{Users: users})
}

// Dispatch routes an inbound envelope to the matching operation.
func (s *RelayService) Dispatch(connectionID string, env models.Envelope) error {
	switch env.Event {
	case models.EventRegister:
		var req models.RegisterPayload
		if err := env.Decode(&req); err != nil {
			return s.malformed(connectionID, env.Event, err)
		}
		return s.Register(connectionID, req.Username)
	case models.EventSendAlert:
		var req models.SendAlertPayload
		if err := env.Decode(&req); err != nil {
			return s.malformed(connectionID, env.Event, err)
		}
		return s.SendAlert(connectionID, req)
	case models.EventHeartbeat:
		s.Heartbeat(connectionID)
	case models.EventGetHistory:
		s.History(connectionID)
	default:
		s.logger.Debug().Str("connection", connectionID).Str("event", env.Event).Msg("ignoring unknown event")
	}
	return nil
}

// HealthStatus reports liveness for the HTTP surface.
func (s *RelayService) HealthStatus() HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	return HealthStatus{
		Status:         "healthy",
		Uptime:         now.Sub(s.started).Seconds(),
		ConnectedUsers: s.roster.Len(),
		Timestamp:      now.UTC().Format(time.RFC3339),
	}
}

// RosterSnapshot returns the registered participants.
func (s *RelayService) RosterSnapshot() []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Snapshot()
}

// RecentAlerts returns up to n alerts from the history, newest first.
func (s *RelayService) RecentAlerts(n int) []models.AlertEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Recent(n)
}

func (s *RelayService) malformed(connectionID, event string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug().Err(err).Str("connection", connectionID).Str("event", event).Msg("malformed payload")
	s.reject(connectionID, event, models.ErrMalformedMessage)
	return errors.Join(models.ErrMalformedMessage, err)
}

// reject sends an "error" event to the offending connection only.
// Callers hold mu.
func (s *RelayService) reject(connectionID, event string, err error) {
	metrics.RequestsRejected.WithLabelValues(event).Inc()
	if p, ok := s.peers[connectionID]; ok {
		s.emit(p, models.EventError, models.ErrorPayload{Message: err.Error()})
	}
}

// broadcastExcept sends to every peer but skip. An empty skip reaches all.
// Callers hold mu.
func (s *RelayService) broadcastExcept(skip, event string, data any) {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("encode broadcast")
		return
	}
	for id, p := range s.peers {
		if id == skip {
			continue
		}
		s.send(p, env)
	}
}

// emit sends one event to one peer. Callers hold mu.
func (s *RelayService) emit(p Peer, event string, data any) {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("encode event")
		return
	}
	s.send(p, env)
}

func (s *RelayService) send(p Peer, env models.Envelope) {
	if !p.Send(env) {
		metrics.SendsDropped.Inc()
		s.logger.Warn().Str("connection", p.ID()).Str("event", env.Event).Msg("dropped event for slow connection")
	}
}
