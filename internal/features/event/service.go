package event

import (
	"context"
	"fmt"
	"time"

	"go-eventsphere/internal/features/notification"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type EventService interface {
	GetEvent(ctx context.Context, id primitive.ObjectID) (*Event, error)
	Register(ctx context.Context, eventID, userID primitive.ObjectID, college string) (*Event, error)
	UpdateStatus(ctx context.Context, eventID primitive.ObjectID, status EventStatus) (*Event, error)
	ExportAttendees(ctx context.Context, eventID primitive.ObjectID) ([]byte, string, error)
}

type EventServiceImpl struct {
	repo          EventRepository
	notifications notification.NotificationService
	log           *zap.Logger
}

func NewEventService(repo EventRepository, notifications notification.NotificationService, log *zap.Logger) EventService {
	return &EventServiceImpl{
		repo:          repo,
		notifications: notifications,
		log:           log,
	}
}

func (s *EventServiceImpl) GetEvent(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// Register adds the user to the attendee list after the usual checks. The
// confirmation notification is best-effort: its failure is logged and must
// never fail the registration itself.
func (s *EventServiceImpl) Register(ctx context.Context, eventID, userID primitive.ObjectID, college string) (*Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	if event.StartTime().Before(time.Now()) {
		return nil, ErrEventPassed
	}
	if event.IsRegistered(userID) {
		return nil, ErrAlreadyRegistered
	}
	if event.RegistrationLimit > 0 && len(event.Attendees) >= event.RegistrationLimit {
		return nil, ErrEventFull
	}

	attendee := Attendee{UserID: userID, RegisteredCollege: college}
	if err := s.repo.AddAttendee(ctx, eventID, attendee); err != nil {
		return nil, err
	}
	event.Attendees = append(event.Attendees, attendee)

	if _, err := s.notifications.CreateEventNotification(ctx, userID,
		notification.EventRef{ID: event.ID, Title: event.Title},
		"Registration",
		fmt.Sprintf("You have successfully registered for %q on %s.",
			event.Title, event.Date.Format("January 2, 2006")),
	); err != nil {
		s.log.Error("failed to create registration notification",
			zap.String("user_id", userID.Hex()),
			zap.String("event_id", event.ID.Hex()),
			zap.Error(err))
	}

	return event, nil
}

// UpdateStatus sets the event status and notifies the creator. As with
// registration, a notification failure never fails the status change.
func (s *EventServiceImpl) UpdateStatus(ctx context.Context, eventID primitive.ObjectID, status EventStatus) (*Event, error) {
	event, err := s.repo.UpdateStatus(ctx, eventID, status)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	if _, err := s.notifications.CreateEventNotification(ctx, event.CreatedBy,
		notification.EventRef{ID: event.ID, Title: event.Title},
		"Status Update",
		fmt.Sprintf("Your event %q has been %s.", event.Title, status),
	); err != nil {
		s.log.Error("failed to create status update notification",
			zap.String("user_id", event.CreatedBy.Hex()),
			zap.String("event_id", event.ID.Hex()),
			zap.Error(err))
	}

	return event, nil
}

// ExportAttendees renders the attendee list as an Excel workbook.
func (s *EventServiceImpl) ExportAttendees(ctx context.Context, eventID primitive.ObjectID) ([]byte, string, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, "", err
	}
	if event == nil {
		return nil, "", ErrEventNotFound
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attendees"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"User ID", "College", "Attended", "Registered At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, attendee := range event.Attendees {
		row := rowIdx + 2
		values := []interface{}{
			attendee.UserID.Hex(),
			attendee.RegisteredCollege,
			attendee.IsAttended,
			attendee.RegisteredAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, val := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 24)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("attendees_%s.xlsx", event.ID.Hex())
	return buf.Bytes(), filename, nil
}
