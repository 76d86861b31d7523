package event

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	StatusPending   EventStatus = "pending"
	StatusApproved  EventStatus = "approved"
	StatusRejected  EventStatus = "rejected"
	StatusCancelled EventStatus = "cancelled"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventPassed       = errors.New("event has already passed")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrEventFull         = errors.New("event is full")
)

type Attendee struct {
	UserID            primitive.ObjectID `bson:"user_id" json:"user_id"`
	RegisteredCollege string             `bson:"registered_college,omitempty" json:"registered_college,omitempty"`
	IsAttended        bool               `bson:"is_attended" json:"is_attended"`
	RegisteredAt      time.Time          `bson:"registered_at" json:"registered_at"`
}

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Date        time.Time          `bson:"date" json:"date"`
	// Time is the wall-clock start in "HH:MM", kept separate from Date the
	// way the stored documents have it.
	Time              string             `bson:"time,omitempty" json:"time,omitempty"`
	Location          string             `bson:"location,omitempty" json:"location,omitempty"`
	Status            EventStatus        `bson:"status" json:"status"`
	CreatedBy         primitive.ObjectID `bson:"created_by" json:"created_by"`
	Attendees         []Attendee         `bson:"attendees" json:"attendees"`
	RegistrationLimit int                `bson:"registration_limit" json:"registration_limit"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// StartTime combines Date with the "HH:MM" Time field.
func (e *Event) StartTime() time.Time {
	start := e.Date
	if len(e.Time) == 5 {
		if t, err := time.Parse("15:04", e.Time); err == nil {
			start = time.Date(start.Year(), start.Month(), start.Day(),
				t.Hour(), t.Minute(), 0, 0, start.Location())
		}
	}
	return start
}

// IsRegistered reports whether the user already appears in the attendee list.
func (e *Event) IsRegistered(userID primitive.ObjectID) bool {
	for _, a := range e.Attendees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
