// Package client keeps one teammate's connection to the relay: it
// registers, tracks the roster, keeps the transport alive with heartbeats
// and reconnects with backoff after the transport is lost.
package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/latestcomment/team-alert/internal/models"
)

// Config holds session settings. Set a timeout to 0 to disable it.
type Config struct {
	ServerURL string
	Username  string

	HeartbeatInterval time.Duration
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffJitter     float64

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

// DefaultConfig returns the settings used by the desktop client.
func DefaultConfig() Config {
	return Config{
		ServerURL:         "http://localhost:3000",
		HeartbeatInterval: 30 * time.Second,
		InitialBackoff:    time.Second,
		MaxBackoff:        5 * time.Second,
		BackoffJitter:     0.5,
		HandshakeTimeout:  10 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

type Option func(*Session)

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session is a long-lived relay connection. Register callbacks before
// Start; they run on the session goroutine and must not call Close.
type Session struct {
	cfg        Config
	dialer     Dialer
	clock      clock.Clock
	logger     zerolog.Logger
	dispatcher dispatcher

	mu      sync.Mutex
	state   State
	conn    Conn
	userID  string
	roster  []models.Participant
	lastAck time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSession(cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		clock:  clock.New(),
		logger: zerolog.Nop(),
		dialer: WebSocketDialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadTimeout:      cfg.ReadTimeout,
			WriteTimeout:     cfg.WriteTimeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) OnState(fn func(StateEvent))            { s.dispatcher.onState = fn }
func (s *Session) OnRoster(fn func([]models.Participant)) { s.dispatcher.onRoster = fn }
func (s *Session) OnPresence(fn func(PresenceEvent))      { s.dispatcher.onPresence = fn }
func (s *Session) OnAlert(fn func(models.AlertEvent))     { s.dispatcher.onAlert = fn }
func (s *Session) OnHistory(fn func([]models.AlertEvent)) { s.dispatcher.onHistory = fn }
func (s *Session) OnError(fn func(error))                 { s.dispatcher.onError = fn }

func (s *Session) Username() string  { return strings.TrimSpace(s.cfg.Username) }
func (s *Session) ServerURL() string { return s.cfg.ServerURL }

// Start begins connecting in the background. Without a username the
// session stays idle and ErrUsernameMissing is returned.
func (s *Session) Start(ctx context.Context) error {
	if s.Username() == "" {
		return ErrUsernameMissing
	}
	u, err := RelayURL(s.cfg.ServerURL)
	if err != nil {
		return WrapError(KindPolicy, "invalid server URL", err)
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(runCtx, u, done)
	return nil
}

// Close stops the session and waits for it to return to StateIdle.
func (s *Session) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID is the connection id assigned by the relay, empty until registered.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Roster returns the last roster received, empty while disconnected.
func (s *Session) Roster() []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Participant, len(s.roster))
	copy(out, s.roster)
	return out
}

// LastHeartbeatAck is the server time of the latest heartbeat-ack.
func (s *Session) LastHeartbeatAck() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAck
}

// SendAlert forwards an alert request to the relay.
func (s *Session) SendAlert(ctx context.Context, p models.SendAlertPayload) error {
	return s.emit(ctx, models.EventSendAlert, p)
}

// RequestHistory asks the relay for its recent alerts; the reply arrives
// through OnHistory.
func (s *Session) RequestHistory(ctx context.Context) error {
	return s.emit(ctx, models.EventGetHistory, nil)
}

func (s *Session) emit(ctx context.Context, event string, data any) error {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()
	if conn == nil || !state.Connected() {
		return ErrNotConnected
	}
	if err := write(ctx, conn, event, data); err != nil {
		return WrapError(KindTransport, "send "+event, err)
	}
	return nil
}

func (s *Session) run(ctx context.Context, url string, done chan struct{}) {
	defer close(done)
	defer s.shutdown()

	b := s.newBackOff()
	for {
		s.setState(StateConnecting, nil)
		s.logger.Debug().Str("url", url).Msg("dialing relay")

		conn, err := s.dialer.Dial(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn().Err(err).Str("url", url).Msg("connect failed")
			s.lost(WrapError(KindTransport, "connect failed", err))
		} else {
			b.Reset()
			err = s.serve(ctx, conn)
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn().Err(err).Msg("connection lost")
			s.lost(WrapError(KindTransport, "connection lost", err))
		}

		wait := b.NextBackOff()
		s.logger.Debug().Dur("wait", wait).Msg("reconnect scheduled")
		if !s.sleep(ctx, wait) {
			return
		}
	}
}

// serve registers on conn and reads until the transport fails.
func (s *Session) serve(ctx context.Context, conn Conn) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.setState(StateConnectedUnregistered, nil)

	if err := write(connCtx, conn, models.EventRegister, models.RegisterPayload{Username: s.Username()}); err != nil {
		return err
	}
	s.logger.Info().Str("username", s.Username()).Msg("connected, registering")

	if s.cfg.HeartbeatInterval > 0 {
		go s.heartbeat(connCtx, conn)
	}

	for {
		var env models.Envelope
		if err := conn.Read(connCtx, &env); err != nil {
			return err
		}
		s.handle(connCtx, conn, env)
	}
}

func (s *Session) handle(ctx context.Context, conn Conn, env models.Envelope) {
	switch env.Event {
	case models.EventRegistered:
		var p models.RegisteredPayload
		if err := env.Decode(&p); err != nil {
			s.malformed(env, err)
			return
		}
		s.mu.Lock()
		s.userID = p.UserID
		s.roster = cloneRoster(p.Users)
		roster := cloneRoster(p.Users)
		s.mu.Unlock()

		s.logger.Info().Str("user_id", p.UserID).Int("online", len(roster)).Msg("registered")
		s.setState(StateRegistered, nil)
		s.dispatcher.roster(roster)

		if err := write(ctx, conn, models.EventGetHistory, nil); err != nil {
			s.logger.Debug().Err(err).Msg("history request failed")
		}

	case models.EventUserJoined, models.EventUserLeft:
		var p models.PresencePayload
		if err := env.Decode(&p); err != nil {
			s.malformed(env, err)
			return
		}
		if !s.replaceRoster(p.Users) {
			return
		}
		s.dispatcher.presence(PresenceEvent{Username: p.Username, Joined: env.Event == models.EventUserJoined})

	case models.EventUsersUpdate:
		var p models.UsersUpdatePayload
		if err := env.Decode(&p); err != nil {
			s.malformed(env, err)
			return
		}
		s.replaceRoster(p.Users)

	case models.EventAlert:
		var ev models.AlertEvent
		if err := env.Decode(&ev); err != nil {
			s.malformed(env, err)
			return
		}
		s.dispatcher.alert(ev)

	case models.EventAlertHistory:
		var p models.AlertHistoryPayload
		if err := env.Decode(&p); err != nil {
			s.malformed(env, err)
			return
		}
		s.dispatcher.history(p.Alerts)

	case models.EventHeartbeatAck:
		var p models.HeartbeatAckPayload
		if err := env.Decode(&p); err != nil {
			s.malformed(env, err)
			return
		}
		s.mu.Lock()
		s.lastAck = time.UnixMilli(p.Timestamp)
		s.mu.Unlock()

	case models.EventError:
		var p models.ErrorPayload
		if err := env.Decode(&p); err != nil {
			s.malformed(env, err)
			return
		}
		s.logger.Warn().Str("message", p.Message).Msg("relay rejected request")
		s.dispatcher.fireError(NewError(KindValidation, p.Message))

	default:
		s.logger.Debug().Str("event", env.Event).Msg("ignoring unknown event")
	}
}

// replaceRoster applies a roster push. Pushes that arrive before the
// registration is confirmed are dropped; registered carries the snapshot.
func (s *Session) replaceRoster(users []models.Participant) bool {
	s.mu.Lock()
	if s.state != StateRegistered {
		s.mu.Unlock()
		return false
	}
	s.roster = cloneRoster(users)
	roster := cloneRoster(users)
	s.mu.Unlock()

	s.dispatcher.roster(roster)
	return true
}

func (s *Session) heartbeat(ctx context.Context, conn Conn) {
	t := s.clock.Ticker(s.cfg.HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := write(ctx, conn, models.EventHeartbeat, nil); err != nil {
				s.logger.Debug().Err(err).Msg("heartbeat failed")
				return
			}
		}
	}
}

// lost records a transport failure: the roster is cleared immediately.
func (s *Session) lost(err error) {
	s.mu.Lock()
	s.conn = nil
	s.userID = ""
	hadRoster := len(s.roster) > 0
	s.roster = nil
	s.mu.Unlock()

	s.setState(StateDisconnected, err)
	if hadRoster {
		s.dispatcher.roster([]models.Participant{})
	}
}

func (s *Session) shutdown() {
	s.mu.Lock()
	s.conn = nil
	s.userID = ""
	hadRoster := len(s.roster) > 0
	s.roster = nil
	s.mu.Unlock()

	s.setState(StateIdle, nil)
	if hadRoster {
		s.dispatcher.roster([]models.Participant{})
	}
	s.logger.Info().Msg("session stopped")
}

// setState moves to the given state. Moving to the current state is a
// no-op and fires no event.
func (s *Session) setState(to State, err error) {
	s.mu.Lock()
	from := s.state
	if from == to {
		s.mu.Unlock()
		return
	}
	s.state = to
	s.mu.Unlock()

	s.dispatcher.state(StateEvent{OldState: from, NewState: to, Error: err})
}

func (s *Session) malformed(env models.Envelope, err error) {
	s.logger.Warn().Err(err).Str("event", env.Event).Msg("malformed event from relay")
}

func (s *Session) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if s.cfg.InitialBackoff > 0 {
		b.InitialInterval = s.cfg.InitialBackoff
	}
	if s.cfg.MaxBackoff > 0 {
		b.MaxInterval = s.cfg.MaxBackoff
	}
	b.RandomizationFactor = s.cfg.BackoffJitter
	b.MaxElapsedTime = 0
	b.Clock = s.clock
	b.Reset()
	return b
}

func (s *Session) sleep(ctx context.Context, d time.Duration) bool {
	t := s.clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func write(ctx context.Context, conn Conn, event string, data any) error {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	return conn.Write(ctx, env)
}

func cloneRoster(users []models.Participant) []models.Participant {
	out := make([]models.Participant, len(users))
	copy(out, users)
	return out
}
