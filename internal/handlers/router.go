package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/latestcomment/team-alert/internal/metrics"
	"github.com/latestcomment/team-alert/internal/services"
)

// NewApp builds the Fiber application serving the relay socket and the
// read-only HTTP surface.
func NewApp(service *services.RelayService, logger zerolog.Logger, corsOrigin string) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:                 Views(),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigin,
		AllowMethods: "GET,POST",
	}))
	app.Use(RequestLogger(logger))

	h := NewHandler(service)
	ws := NewWebSocketHandler(service, logger)

	app.Get("/", h.StatusPage)
	app.Get("/health", h.Health)
	app.Get("/users", h.Users)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/ws", ws.WebSocketMiddleware, websocket.New(ws.HandleWebSocket))

	return app
}

// RequestLogger logs each request once it completed and counts it.
func RequestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).Inc()

		logger.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("remote_addr", c.IP()).
			Msg("request completed")
		return err
	}
}
