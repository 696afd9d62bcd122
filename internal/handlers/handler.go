package handlers

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/latestcomment/team-alert/internal/models"
	"github.com/latestcomment/team-alert/internal/services"
)

//go:embed views/*.html
var viewsFS embed.FS

// Views returns the template engine for the status page.
func Views() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

type Handler struct {
	Service *services.RelayService
}

func NewHandler(service *services.RelayService) *Handler {
	return &Handler{Service: service}
}

// UsersResponse is served on GET /users.
type UsersResponse struct {
	Users []models.PublicParticipant `json:"users"`
	Count int                        `json:"count"`
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(h.Service.HealthStatus())
}

func (h *Handler) Users(c *fiber.Ctx) error {
	roster := h.Service.RosterSnapshot()
	users := make([]models.PublicParticipant, len(roster))
	for i, p := range roster {
		users[i] = p.Public()
	}
	return c.JSON(UsersResponse{Users: users, Count: len(users)})
}

// StatusPage renders the roster and the latest alerts.
func (h *Handler) StatusPage(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Health": h.Service.HealthStatus(),
		"Users":  h.Service.RosterSnapshot(),
		"Alerts": h.Service.RecentAlerts(10),
	})
}
