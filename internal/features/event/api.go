package event

import (
	"go-eventsphere/internal/common/api"
	"go-eventsphere/internal/config"
	"go-eventsphere/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type EventApi struct {
	controller *EventController
	config     *config.Config
}

func NewEventApi(controller *EventController, config *config.Config) api.Route {
	return &EventApi{
		controller: controller,
		config:     config,
	}
}

func (h *EventApi) Setup(app *fiber.App) {
	group := app.Group("/api/events", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/:id/register", h.controller.Register)
	group.Patch("/:id/status", middleware.RequireRoles("admin"), h.controller.UpdateStatus)
	group.Get("/:id/attendees/export", middleware.RequireRoles("club", "admin"), h.controller.ExportAttendees)
}
