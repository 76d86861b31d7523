package notification

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationKind string

const (
	KindInfo     NotificationKind = "info"
	KindSuccess  NotificationKind = "success"
	KindWarning  NotificationKind = "warning"
	KindError    NotificationKind = "error"
	KindReminder NotificationKind = "reminder"
)

// FeedLimit caps how many records the user-facing feed returns.
const FeedLimit = 50

// RetentionKeep is how many records per user the cleanup sweep preserves.
const RetentionKeep = 100

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrReminderExists       = errors.New("reminder already exists for this event")
	ErrInvalidKind          = errors.New("invalid notification kind")
)

// Valid reports whether the kind is one of the known values.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindInfo, KindSuccess, KindWarning, KindError, KindReminder:
		return true
	}
	return false
}

// Notification is one unit of user-facing information. Only IsRead (and its
// ReadAt companion) ever changes after creation.
type Notification struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Title        string              `bson:"title" json:"title"`
	Message      string              `bson:"message" json:"message"`
	Kind         NotificationKind    `bson:"kind" json:"kind"`
	IsRead       bool                `bson:"is_read" json:"is_read"`
	ScheduledFor *time.Time          `bson:"scheduled_for,omitempty" json:"scheduled_for,omitempty"`
	EventID      *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	ActionURL    string              `bson:"action_url,omitempty" json:"action_url,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	ReadAt       *time.Time          `bson:"read_at,omitempty" json:"read_at,omitempty"`
}

// CreateOptions carries the optional fields of a new notification.
type CreateOptions struct {
	ScheduledFor *time.Time
	EventID      *primitive.ObjectID
	ActionURL    string
}

// EventRef is the slice of an Event this package needs to build message text
// and action URLs. The event collaborator owns the full record.
type EventRef struct {
	ID    primitive.ObjectID
	Title string
}
