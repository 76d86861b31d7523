package notification

import (
	"go-eventsphere/internal/common/api"
	"go-eventsphere/internal/config"
	"go-eventsphere/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, config *config.Config) api.Route {
	return &NotificationApi{
		controller: controller,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	// Internal trigger and delivery sink sit outside the auth group: the due
	// endpoint is for system cron use, the websocket authenticates itself.
	app.Get("/api/notifications/scheduled/due", h.controller.DueReminders)
	app.Get("/api/notifications/ws", websocket.New(h.controller.HandleWebSocket))

	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.List)
	group.Get("/unread-count", h.controller.GetUnreadCount)
	group.Patch("/mark-all-read", h.controller.MarkAllAsRead)
	group.Patch("/:id/read", h.controller.MarkAsRead)
	group.Post("/", h.controller.Create)
	group.Post("/reminder", h.controller.CreateReminder)
	group.Delete("/:id", h.controller.Delete)
}
