package event

import (
	"errors"
	"fmt"

	"go-eventsphere/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventController struct {
	service EventService
}

func NewEventController(service EventService) *EventController {
	return &EventController{
		service: service,
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

type registerRequest struct {
	College string `json:"college"`
}

func (c *EventController) Register(ctx *fiber.Ctx) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	eventID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event ID"})
	}

	var req registerRequest
	// Body is optional; college defaults to empty
	_ = ctx.BodyParser(&req)

	event, err := c.service.Register(ctx.Context(), eventID, userID, req.College)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
		case errors.Is(err, ErrEventPassed):
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This event has already passed and registration is closed."})
		case errors.Is(err, ErrAlreadyRegistered):
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You are already registered."})
		case errors.Is(err, ErrEventFull):
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Sorry, this event is full."})
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error during registration."})
		}
	}

	return ctx.JSON(fiber.Map{"message": "Registered successfully!", "event": event})
}

type statusRequest struct {
	Status EventStatus `json:"status"`
}

func (c *EventController) UpdateStatus(ctx *fiber.Ctx) error {
	eventID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event ID"})
	}

	var req statusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	switch req.Status {
	case StatusApproved, StatusRejected, StatusCancelled, StatusPending:
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}

	event, err := c.service.UpdateStatus(ctx.Context(), eventID, req.Status)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Event status update failed"})
	}

	return ctx.JSON(event)
}

// ExportAttendees streams the workbook as a download.
func (c *EventController) ExportAttendees(ctx *fiber.Ctx) error {
	eventID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event ID"})
	}

	data, filename, err := c.service.ExportAttendees(ctx.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to export attendees"})
	}

	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Send(data)
}
