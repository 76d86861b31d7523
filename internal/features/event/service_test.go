package event

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go-eventsphere/internal/features/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeEventRepo struct {
	events map[primitive.ObjectID]*Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[primitive.ObjectID]*Event)}
}

func (r *fakeEventRepo) put(e *Event) *Event {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	r.events[e.ID] = e
	return e
}

func (r *fakeEventRepo) GetByID(_ context.Context, id primitive.ObjectID) (*Event, error) {
	if e, ok := r.events[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeEventRepo) AddAttendee(_ context.Context, eventID primitive.ObjectID, attendee Attendee) error {
	e, ok := r.events[eventID]
	if !ok {
		return errors.New("event vanished")
	}
	attendee.RegisteredAt = time.Now()
	e.Attendees = append(e.Attendees, attendee)
	return nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status EventStatus) (*Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	e.Status = status
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) EnsureIndexes(_ context.Context) error { return nil }

// stubNotifier records CreateEventNotification calls and can be told to fail.
// The remaining methods exist only to satisfy the interface.
type stubNotifier struct {
	notification.NotificationService
	created []struct {
		userID primitive.ObjectID
		label  string
	}
	err error
}

func (s *stubNotifier) CreateEventNotification(_ context.Context, userID primitive.ObjectID, event notification.EventRef, label, message string) (*notification.Notification, error) {
	s.created = append(s.created, struct {
		userID primitive.ObjectID
		label  string
	}{userID, label})
	if s.err != nil {
		return nil, s.err
	}
	return &notification.Notification{UserID: userID, Title: label, Message: message}, nil
}

func upcomingEvent(repo *fakeEventRepo, limit int) *Event {
	return repo.put(&Event{
		Title:             "Robotics Demo",
		Date:              time.Now().Add(48 * time.Hour),
		Time:              "14:00",
		Location:          "Main Hall",
		Status:            StatusApproved,
		CreatedBy:         primitive.NewObjectID(),
		RegistrationLimit: limit,
	})
}

func TestRegisterChecks(t *testing.T) {
	repo := newFakeEventRepo()
	notifier := &stubNotifier{}
	svc := NewEventService(repo, notifier, zap.NewNop())
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("unknown event", func(t *testing.T) {
		_, err := svc.Register(ctx, primitive.NewObjectID(), userID, "Engineering")
		if !errors.Is(err, ErrEventNotFound) {
			t.Fatalf("error = %v, want ErrEventNotFound", err)
		}
	})

	t.Run("past event", func(t *testing.T) {
		past := repo.put(&Event{
			Title:  "Yesterday",
			Date:   time.Now().Add(-24 * time.Hour),
			Time:   "10:00",
			Status: StatusApproved,
		})
		_, err := svc.Register(ctx, past.ID, userID, "Engineering")
		if !errors.Is(err, ErrEventPassed) {
			t.Fatalf("error = %v, want ErrEventPassed", err)
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		e := upcomingEvent(repo, 0)
		if _, err := svc.Register(ctx, e.ID, userID, "Engineering"); err != nil {
			t.Fatalf("first Register() error = %v", err)
		}
		_, err := svc.Register(ctx, e.ID, userID, "Engineering")
		if !errors.Is(err, ErrAlreadyRegistered) {
			t.Fatalf("error = %v, want ErrAlreadyRegistered", err)
		}
	})

	t.Run("capacity", func(t *testing.T) {
		e := upcomingEvent(repo, 1)
		if _, err := svc.Register(ctx, e.ID, primitive.NewObjectID(), "Arts"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		_, err := svc.Register(ctx, e.ID, primitive.NewObjectID(), "Arts")
		if !errors.Is(err, ErrEventFull) {
			t.Fatalf("error = %v, want ErrEventFull", err)
		}
	})
}

func TestRegisterNotifies(t *testing.T) {
	repo := newFakeEventRepo()
	notifier := &stubNotifier{}
	svc := NewEventService(repo, notifier, zap.NewNop())
	userID := primitive.NewObjectID()
	e := upcomingEvent(repo, 0)

	updated, err := svc.Register(context.Background(), e.ID, userID, "Science")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(updated.Attendees) != 1 || updated.Attendees[0].UserID != userID {
		t.Fatalf("attendees = %+v, want the registering user", updated.Attendees)
	}
	if len(notifier.created) != 1 || notifier.created[0].label != "Registration" {
		t.Fatalf("notifications = %+v, want one Registration notice", notifier.created)
	}
	if notifier.created[0].userID != userID {
		t.Errorf("notified %s, want registrant %s", notifier.created[0].userID.Hex(), userID.Hex())
	}
}

func TestRegisterSurvivesNotificationFailure(t *testing.T) {
	repo := newFakeEventRepo()
	notifier := &stubNotifier{err: errors.New("store down")}
	svc := NewEventService(repo, notifier, zap.NewNop())
	userID := primitive.NewObjectID()
	e := upcomingEvent(repo, 0)

	updated, err := svc.Register(context.Background(), e.ID, userID, "Science")
	if err != nil {
		t.Fatalf("Register() failed because of the notification: %v", err)
	}
	if !updated.IsRegistered(userID) {
		t.Fatal("registration was rolled back")
	}
	if len(notifier.created) != 1 {
		t.Errorf("notification attempts = %d, want 1", len(notifier.created))
	}
}

func TestUpdateStatusNotifiesCreator(t *testing.T) {
	repo := newFakeEventRepo()
	notifier := &stubNotifier{}
	svc := NewEventService(repo, notifier, zap.NewNop())
	e := upcomingEvent(repo, 0)

	updated, err := svc.UpdateStatus(context.Background(), e.ID, StatusRejected)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != StatusRejected {
		t.Errorf("Status = %q, want rejected", updated.Status)
	}
	if len(notifier.created) != 1 || notifier.created[0].userID != e.CreatedBy {
		t.Fatalf("notifications = %+v, want one to the creator", notifier.created)
	}
	if notifier.created[0].label != "Status Update" {
		t.Errorf("label = %q, want Status Update", notifier.created[0].label)
	}

	if _, err := svc.UpdateStatus(context.Background(), primitive.NewObjectID(), StatusApproved); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("UpdateStatus() on unknown event error = %v, want ErrEventNotFound", err)
	}

	// A notification failure never fails the status change.
	notifier.err = errors.New("store down")
	if _, err := svc.UpdateStatus(context.Background(), e.ID, StatusCancelled); err != nil {
		t.Errorf("UpdateStatus() failed because of the notification: %v", err)
	}
}

func TestExportAttendees(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewEventService(repo, &stubNotifier{}, zap.NewNop())
	e := upcomingEvent(repo, 0)
	e.Attendees = []Attendee{
		{UserID: primitive.NewObjectID(), RegisteredCollege: "Engineering", RegisteredAt: time.Now()},
		{UserID: primitive.NewObjectID(), RegisteredCollege: "Arts", IsAttended: true, RegisteredAt: time.Now()},
	}

	data, filename, err := svc.ExportAttendees(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("ExportAttendees() error = %v", err)
	}
	if want := "attendees_" + e.ID.Hex() + ".xlsx"; filename != want {
		t.Errorf("filename = %q, want %q", filename, want)
	}
	// xlsx files are zip archives; PK is the zip magic.
	if len(data) == 0 || !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("ExportAttendees() returned %d bytes, want a zip-framed workbook", len(data))
	}

	if _, _, err := svc.ExportAttendees(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("ExportAttendees() on unknown event error = %v, want ErrEventNotFound", err)
	}
}
