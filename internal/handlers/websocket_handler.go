package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/latestcomment/team-alert/internal/models"
	"github.com/latestcomment/team-alert/internal/services"
)

const (
	peerBufferSize = 64
	writeWait      = 10 * time.Second
)

type WebSocketHandler struct {
	Service *services.RelayService
	Logger  zerolog.Logger
}

func NewWebSocketHandler(service *services.RelayService, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{Service: service, Logger: logger}
}

func (h *WebSocketHandler) WebSocketMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// connPeer queues events for the connection's writer goroutine. The
// websocket allows one concurrent writer, so nothing else writes to it.
type connPeer struct {
	id   string
	send chan models.Envelope
}

func (p *connPeer) ID() string { return p.id }

func (p *connPeer) Send(env models.Envelope) bool {
	select {
	case p.send <- env:
		return true
	default:
		return false
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	defer func() {
		_ = c.Close()
	}()

	peer := &connPeer{
		id:   uuid.NewString(),
		send: make(chan models.Envelope, peerBufferSize),
	}
	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go h.writePump(c, peer, stop, writerDone)

	h.Service.Connect(peer)
	reason := h.readLoop(c, peer)
	h.Service.Disconnect(peer.id, reason)

	close(stop)
	<-writerDone
}

// readLoop dispatches inbound envelopes until the transport fails and
// returns the disconnect reason.
func (h *WebSocketHandler) readLoop(c *websocket.Conn, peer *connPeer) string {
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return disconnectReason(err)
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			h.Logger.Debug().Str("connection", peer.id).Msg("unreadable frame")
			errEnv, _ := models.NewEnvelope(models.EventError, models.ErrorPayload{Message: models.ErrMalformedMessage.Error()})
			peer.Send(errEnv)
			continue
		}
		_ = h.Service.Dispatch(peer.id, env)
	}
}

func (h *WebSocketHandler) writePump(c *websocket.Conn, peer *connPeer, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case env := <-peer.send:
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteJSON(env); err != nil {
				h.Logger.Error().Err(err).Str("connection", peer.id).Msg("socket write failed")
				// Closing unblocks the reader, which reports the disconnect.
				_ = c.Close()
				return
			}
		case <-stop:
			return
		}
	}
}

func disconnectReason(err error) string {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure):
		return "client disconnect"
	case websocket.IsCloseError(err, websocket.CloseGoingAway):
		return "client going away"
	case websocket.IsUnexpectedCloseError(err):
		return "transport error: " + err.Error()
	default:
		return "transport close"
	}
}
