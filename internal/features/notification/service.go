package notification

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, userID primitive.ObjectID, title, message string, kind NotificationKind, opts CreateOptions) (*Notification, error)
	CreateEventNotification(ctx context.Context, userID primitive.ObjectID, event EventRef, label, message string) (*Notification, error)
	CreateEventReminder(ctx context.Context, userID primitive.ObjectID, event EventRef, reminderMinutes int) (*Notification, error)
	CreateBulkNotifications(ctx context.Context, userIDs []primitive.ObjectID, title, message string, kind NotificationKind, opts CreateOptions) error

	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]Notification, error)
	GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id string, userID primitive.ObjectID) (*Notification, error)
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error
	Delete(ctx context.Context, id string, userID primitive.ObjectID) error

	GetDueReminders(ctx context.Context) ([]Notification, error)
	MarkReminderProcessed(ctx context.Context, id primitive.ObjectID) error
	CleanupOldNotifications(ctx context.Context) error
}

type NotificationServiceImpl struct {
	repo NotificationRepository
	log  *zap.Logger
}

func NewNotificationService(repo NotificationRepository, log *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		repo: repo,
		log:  log,
	}
}

func (s *NotificationServiceImpl) CreateNotification(ctx context.Context, userID primitive.ObjectID, title, message string, kind NotificationKind, opts CreateOptions) (*Notification, error) {
	if kind == "" {
		kind = KindInfo
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	n := &Notification{
		UserID:       userID,
		Title:        title,
		Message:      message,
		Kind:         kind,
		ScheduledFor: opts.ScheduledFor,
		EventID:      opts.EventID,
		ActionURL:    opts.ActionURL,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationServiceImpl) CreateEventNotification(ctx context.Context, userID primitive.ObjectID, event EventRef, label, message string) (*Notification, error) {
	return s.CreateNotification(ctx, userID,
		fmt.Sprintf("Event %s: %s", label, event.Title),
		message,
		KindInfo,
		CreateOptions{
			EventID:   &event.ID,
			ActionURL: fmt.Sprintf("/event.html?id=%s", event.ID.Hex()),
		},
	)
}

// CreateEventReminder schedules a reminder kind notification for
// reminderMinutes from now. At most one reminder may exist per (user, event);
// the lookup below is best-effort and the duplicate-key mapping catches the
// concurrent case against the partial unique index.
func (s *NotificationServiceImpl) CreateEventReminder(ctx context.Context, userID primitive.ObjectID, event EventRef, reminderMinutes int) (*Notification, error) {
	existing, err := s.repo.FindReminder(ctx, userID, event.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrReminderExists
	}

	scheduledFor := time.Now().Add(time.Duration(reminderMinutes) * time.Minute)
	n, err := s.CreateNotification(ctx, userID,
		fmt.Sprintf("Event Reminder: %s", event.Title),
		fmt.Sprintf("Your event %q starts in %d minutes", event.Title, reminderMinutes),
		KindReminder,
		CreateOptions{
			ScheduledFor: &scheduledFor,
			EventID:      &event.ID,
			ActionURL:    fmt.Sprintf("/event.html?id=%s", event.ID.Hex()),
		},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrReminderExists
		}
		return nil, err
	}
	return n, nil
}

// CreateBulkNotifications fans the same content out to many users. No
// per-user dedup is applied.
func (s *NotificationServiceImpl) CreateBulkNotifications(ctx context.Context, userIDs []primitive.ObjectID, title, message string, kind NotificationKind, opts CreateOptions) error {
	if kind == "" {
		kind = KindInfo
	}
	if !kind.Valid() {
		return ErrInvalidKind
	}
	ns := make([]*Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		ns = append(ns, &Notification{
			UserID:       userID,
			Title:        title,
			Message:      message,
			Kind:         kind,
			ScheduledFor: opts.ScheduledFor,
			EventID:      opts.EventID,
			ActionURL:    opts.ActionURL,
		})
	}
	return s.repo.InsertMany(ctx, ns)
}

func (s *NotificationServiceImpl) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]Notification, error) {
	return s.repo.ListByUser(ctx, userID, FeedLimit)
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id string, userID primitive.ObjectID) (*Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotificationNotFound
	}
	n, err := s.repo.MarkAsRead(ctx, oid, userID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationServiceImpl) Delete(ctx context.Context, id string, userID primitive.ObjectID) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotificationNotFound
	}
	deleted, err := s.repo.DeleteByOwner(ctx, oid, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationServiceImpl) GetDueReminders(ctx context.Context) ([]Notification, error) {
	return s.repo.FindDueReminders(ctx, time.Now())
}

func (s *NotificationServiceImpl) MarkReminderProcessed(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.MarkProcessed(ctx, id)
}

// CleanupOldNotifications keeps each user's RetentionKeep newest records and
// deletes the rest. Users are swept sequentially; a failure for one user is
// logged and does not stop the sweep.
func (s *NotificationServiceImpl) CleanupOldNotifications(ctx context.Context) error {
	userIDs, err := s.repo.DistinctUserIDs(ctx)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		overflow, err := s.repo.ListOverflow(ctx, userID, RetentionKeep)
		if err != nil {
			s.log.Error("failed to list overflow notifications",
				zap.String("user_id", userID.Hex()), zap.Error(err))
			continue
		}
		if len(overflow) == 0 {
			continue
		}

		ids := make([]primitive.ObjectID, 0, len(overflow))
		for _, n := range overflow {
			ids = append(ids, n.ID)
		}

		deleted, err := s.repo.DeleteByIDs(ctx, ids)
		if err != nil {
			s.log.Error("failed to delete old notifications",
				zap.String("user_id", userID.Hex()), zap.Error(err))
			continue
		}
		s.log.Info("cleaned up old notifications",
			zap.String("user_id", userID.Hex()), zap.Int64("deleted", deleted))
	}

	return nil
}
