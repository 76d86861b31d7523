package notification

import (
	"context"
	"time"

	"go-eventsphere/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository interface {
	Insert(ctx context.Context, n *Notification) error
	InsertMany(ctx context.Context, ns []*Notification) error
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*Notification, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	FindDueReminders(ctx context.Context, now time.Time) ([]Notification, error)
	FindReminder(ctx context.Context, userID, eventID primitive.ObjectID) (*Notification, error)
	MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) (*Notification, error)
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error
	MarkProcessed(ctx context.Context, id primitive.ObjectID) error
	DeleteByOwner(ctx context.Context, id, userID primitive.ObjectID) (bool, error)
	DistinctUserIDs(ctx context.Context) ([]primitive.ObjectID, error)
	ListOverflow(ctx context.Context, userID primitive.ObjectID, keep int64) ([]Notification, error)
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type NotificationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewNotificationRepository(mongodb *database.MongodbDB) NotificationRepository {
	return &NotificationRepositoryImpl{
		Collection: mongodb.DB.Collection("notifications"),
	}
}

func (r *NotificationRepositoryImpl) Insert(ctx context.Context, n *Notification) error {
	n.CreatedAt = time.Now()
	n.IsRead = false
	result, err := r.Collection.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	n.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *NotificationRepositoryImpl) InsertMany(ctx context.Context, ns []*Notification) error {
	if len(ns) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(ns))
	for _, n := range ns {
		n.CreatedAt = now
		n.IsRead = false
		docs = append(docs, n)
	}
	// Unordered so one bad document does not abort the rest of the batch
	_, err := r.Collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

func (r *NotificationRepositoryImpl) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*Notification, error) {
	var n Notification
	err := r.Collection.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepositoryImpl) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"is_read": false,
	})
}

// FindDueReminders is the scheduler's query: globally, every unread reminder
// whose activation instant has passed, oldest activation first.
func (r *NotificationRepositoryImpl) FindDueReminders(ctx context.Context, now time.Time) ([]Notification, error) {
	filter := bson.M{
		"scheduled_for": bson.M{"$lte": now},
		"is_read":       false,
		"kind":          KindReminder,
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_for", Value: 1}})

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var due []Notification
	if err = cursor.All(ctx, &due); err != nil {
		return nil, err
	}
	return due, nil
}

func (r *NotificationRepositoryImpl) FindReminder(ctx context.Context, userID, eventID primitive.ObjectID) (*Notification, error) {
	var n Notification
	err := r.Collection.FindOne(ctx, bson.M{
		"user_id":  userID,
		"event_id": eventID,
		"kind":     KindReminder,
	}).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// MarkAsRead flips an unread record and stamps read_at once. Marking an
// already-read record is a no-op that returns it unchanged, so read_at always
// records the first mark.
func (r *NotificationRepositoryImpl) MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) (*Notification, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"is_read": true,
			"read_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n Notification
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID, "is_read": false}, update, opts).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return r.GetByID(ctx, id, userID)
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	now := time.Now()
	_, err := r.Collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{
			"$set": bson.M{
				"is_read": true,
				"read_at": now,
			},
		},
	)
	return err
}

// MarkProcessed flips is_read without an owner filter; the scheduler operates
// across users.
func (r *NotificationRepositoryImpl) MarkProcessed(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"is_read": true,
				"read_at": now,
			},
		},
	)
	return err
}

func (r *NotificationRepositoryImpl) DeleteByOwner(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	result, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *NotificationRepositoryImpl) DistinctUserIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := r.Collection.Distinct(ctx, "user_id", bson.M{})
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListOverflow returns a user's records ranked past the newest keep, i.e. the
// candidates for retention deletion.
func (r *NotificationRepositoryImpl) ListOverflow(ctx context.Context, userID primitive.ObjectID, keep int64) ([]Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(keep)

	cursor, err := r.Collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var overflow []Notification
	if err = cursor.All(ctx, &overflow); err != nil {
		return nil, err
	}
	return overflow, nil
}

func (r *NotificationRepositoryImpl) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.Collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func notificationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "scheduled_for", Value: 1}, {Key: "is_read", Value: 1}},
		},
		{
			// One reminder per (user, event). Closes the check-then-act race
			// on the reminder creation path at the store. The $exists clause
			// keeps event-less reminders out of the index; Mongo would
			// otherwise key them all under (user, null) and reject the
			// second one.
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"kind":     KindReminder,
					"event_id": bson.M{"$exists": true},
				}),
		},
	}
}

func (r *NotificationRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, notificationIndexes())
	return err
}
