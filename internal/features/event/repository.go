package event

import (
	"context"
	"time"

	"go-eventsphere/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	AddAttendee(ctx context.Context, id primitive.ObjectID, attendee Attendee) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status EventStatus) (*Event, error)
	EnsureIndexes(ctx context.Context) error
}

type EventRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewEventRepository(mongodb *database.MongodbDB) EventRepository {
	return &EventRepositoryImpl{
		Collection: mongodb.DB.Collection("events"),
	}
}

func (r *EventRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	var event Event
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) AddAttendee(ctx context.Context, id primitive.ObjectID, attendee Attendee) error {
	attendee.RegisteredAt = time.Now()
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"attendees": attendee}},
	)
	return err
}

func (r *EventRepositoryImpl) UpdateStatus(ctx context.Context, id primitive.ObjectID, status EventStatus) (*Event, error) {
	update := bson.M{"$set": bson.M{"status": status}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event Event
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
	}
	_, err := r.Collection.Indexes().CreateMany(ctx, indexes)
	return err
}
