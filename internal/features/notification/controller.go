package notification

import (
	"context"
	"errors"
	"time"

	"go-eventsphere/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventFinder resolves an event id to the slice of the event this package
// needs. The event feature provides the implementation; the adapter is wired
// in main.
type EventFinder interface {
	FindEvent(ctx context.Context, id primitive.ObjectID) (*EventRef, error)
}

type NotificationController struct {
	service NotificationService
	events  EventFinder
	hub     *Hub
	log     *zap.Logger
}

func NewNotificationController(service NotificationService, events EventFinder, hub *Hub, log *zap.Logger) *NotificationController {
	return &NotificationController{
		service: service,
		events:  events,
		hub:     hub,
		log:     log,
	}
}

func currentUserID(ctx *fiber.Ctx) (primitive.ObjectID, bool) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims == nil {
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return userID, true
}

// List returns the caller's feed, newest first, capped at FeedLimit.
func (c *NotificationController) List(ctx *fiber.Ctx) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	notifications, err := c.service.GetUserNotifications(ctx.Context(), userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}
	if notifications == nil {
		notifications = []Notification{}
	}

	return ctx.JSON(notifications)
}

func (c *NotificationController) GetUnreadCount(ctx *fiber.Ctx) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	count, err := c.service.GetUnreadCount(ctx.Context(), userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch unread count"})
	}

	return ctx.JSON(fiber.Map{"count": count})
}

// MarkAsRead flips one record and returns the updated document.
func (c *NotificationController) MarkAsRead(ctx *fiber.Ctx) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	n, err := c.service.MarkAsRead(ctx.Context(), ctx.Params("id"), userID)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notification as read"})
	}

	return ctx.JSON(n)
}

func (c *NotificationController) MarkAllAsRead(ctx *fiber.Ctx) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := c.service.MarkAllAsRead(ctx.Context(), userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notifications as read"})
	}

	return ctx.JSON(fiber.Map{"message": "All notifications marked as read"})
}

type createRequest struct {
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	Kind         NotificationKind `json:"kind"`
	ScheduledFor *time.Time       `json:"scheduled_for"`
	EventID      string           `json:"event_id"`
	ActionURL    string           `json:"action_url"`
}

// Create inserts a notification for the caller themselves.
func (c *NotificationController) Create(ctx *fiber.Ctx) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req createRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.Message == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title and message are required"})
	}

	opts := CreateOptions{
		ScheduledFor: req.ScheduledFor,
		ActionURL:    req.ActionURL,
	}
	if req.EventID != "" {
		eventID, err := primitive.ObjectIDFromHex(req.EventID)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event ID"})
		}
		opts.EventID = &eventID
	}

	n, err := c.service.CreateNotification(ctx.Context(), userID, req.Title, req.Message, req.Kind, opts)
	if err != nil {
		if errors.Is(err, ErrInvalidKind) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification kind"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create notification"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(n)
}

type reminderRequest struct {
	EventID         string `json:"event_id"`
	ReminderMinutes int    `json:"reminder_minutes"`
}

// CreateReminder verifies the event exists, then schedules a reminder.
// A second reminder for the same (user, event) is a conflict.
func (c *NotificationController) CreateReminder(ctx *fiber.Ctx) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req reminderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ReminderMinutes <= 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reminder_minutes must be positive"})
	}

	eventID, err := primitive.ObjectIDFromHex(req.EventID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event ID"})
	}

	event, err := c.events.FindEvent(ctx.Context(), eventID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up event"})
	}
	if event == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
	}

	n, err := c.service.CreateEventReminder(ctx.Context(), userID, *event, req.ReminderMinutes)
	if err != nil {
		if errors.Is(err, ErrReminderExists) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Reminder already exists for this event"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create reminder"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(n)
}

func (c *NotificationController) Delete(ctx *fiber.Ctx) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := c.service.Delete(ctx.Context(), ctx.Params("id"), userID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete notification"})
	}

	return ctx.JSON(fiber.Map{"message": "Notification deleted successfully"})
}

// DueReminders is the internal trigger surface: everything globally due,
// unread, and reminder-kind. No auth; reachable for an external cron.
func (c *NotificationController) DueReminders(ctx *fiber.Ctx) error {
	due, err := c.service.GetDueReminders(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch due reminders"})
	}
	if due == nil {
		due = []Notification{}
	}
	return ctx.JSON(due)
}

// HandleWebSocket authenticates via a token query parameter (browsers cannot
// set headers on websocket upgrades) and parks the connection in the hub
// until the client goes away.
func (c *NotificationController) HandleWebSocket(conn *websocket.Conn) {
	claims, err := utils.ValidateToken(conn.Query("token"))
	if err != nil {
		c.log.Warn("websocket auth failed", zap.Error(err))
		conn.Close()
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		conn.Close()
		return
	}

	c.hub.Register(userID, conn)
	defer func() {
		c.hub.Unregister(userID, conn)
		conn.Close()
	}()

	// Drain client frames; the connection is push-only from our side.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
