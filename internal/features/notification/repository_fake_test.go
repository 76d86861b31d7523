package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeRepo is an in-memory NotificationRepository. Insert order is tracked so
// created_at ties (the fake clock steps one second per insert, so there are
// none in practice) cannot flip the feed order.
type fakeRepo struct {
	mu      sync.Mutex
	entries map[primitive.ObjectID]*fakeEntry
	seq     int
	clock   time.Time

	// test hooks
	dueCalls  int
	dueBlock  chan struct{} // when set, FindDueReminders waits for a signal
	insertErr error
	markErr   map[primitive.ObjectID]error
}

type fakeEntry struct {
	n   Notification
	seq int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		entries: make(map[primitive.ObjectID]*fakeEntry),
		clock:   time.Now().Add(-time.Hour),
		markErr: make(map[primitive.ObjectID]error),
	}
}

func (r *fakeRepo) Insert(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.seq++
	r.clock = r.clock.Add(time.Second)
	n.ID = primitive.NewObjectID()
	n.CreatedAt = r.clock
	n.IsRead = false
	copied := *n
	r.entries[n.ID] = &fakeEntry{n: copied, seq: r.seq}
	return nil
}

func (r *fakeRepo) InsertMany(ctx context.Context, ns []*Notification) error {
	for _, n := range ns {
		if err := r.Insert(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id, userID primitive.ObjectID) (*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok && e.n.UserID == userID {
		n := e.n
		return &n, nil
	}
	return nil, nil
}

func (r *fakeRepo) byUserDesc(userID primitive.ObjectID) []*fakeEntry {
	var out []*fakeEntry
	for _, e := range r.entries {
		if e.n.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq > out[j].seq })
	return out
}

func (r *fakeRepo) ListByUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, e := range r.byUserDesc(userID) {
		if int64(len(out)) >= limit {
			break
		}
		out = append(out, e.n)
	}
	return out, nil
}

func (r *fakeRepo) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, e := range r.entries {
		if e.n.UserID == userID && !e.n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) FindDueReminders(_ context.Context, now time.Time) ([]Notification, error) {
	r.mu.Lock()
	r.dueCalls++
	block := r.dueBlock
	r.mu.Unlock()
	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var due []Notification
	for _, e := range r.entries {
		n := e.n
		if n.Kind == KindReminder && !n.IsRead && n.ScheduledFor != nil && !n.ScheduledFor.After(now) {
			due = append(due, n)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledFor.Before(*due[j].ScheduledFor) })
	return due, nil
}

func (r *fakeRepo) FindReminder(_ context.Context, userID, eventID primitive.ObjectID) (*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		n := e.n
		if n.Kind == KindReminder && n.UserID == userID && n.EventID != nil && *n.EventID == eventID {
			return &n, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) MarkAsRead(_ context.Context, id, userID primitive.ObjectID) (*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.n.UserID != userID {
		return nil, nil
	}
	if !e.n.IsRead {
		now := time.Now()
		e.n.IsRead = true
		e.n.ReadAt = &now
	}
	n := e.n
	return &n, nil
}

func (r *fakeRepo) MarkAllAsRead(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, e := range r.entries {
		if e.n.UserID == userID && !e.n.IsRead {
			e.n.IsRead = true
			e.n.ReadAt = &now
		}
	}
	return nil
}

func (r *fakeRepo) MarkProcessed(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.markErr[id]; err != nil {
		return err
	}
	if e, ok := r.entries[id]; ok {
		now := time.Now()
		e.n.IsRead = true
		e.n.ReadAt = &now
	}
	return nil
}

func (r *fakeRepo) DeleteByOwner(_ context.Context, id, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok && e.n.UserID == userID {
		delete(r.entries, id)
		return true, nil
	}
	return false, nil
}

func (r *fakeRepo) DistinctUserIDs(_ context.Context) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[primitive.ObjectID]bool)
	var out []primitive.ObjectID
	for _, e := range r.entries {
		if !seen[e.n.UserID] {
			seen[e.n.UserID] = true
			out = append(out, e.n.UserID)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListOverflow(_ context.Context, userID primitive.ObjectID, keep int64) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for i, e := range r.byUserDesc(userID) {
		if int64(i) < keep {
			continue
		}
		out = append(out, e.n)
	}
	return out, nil
}

func (r *fakeRepo) DeleteByIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := r.entries[id]; ok {
			delete(r.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeRepo) EnsureIndexes(_ context.Context) error { return nil }

func (r *fakeRepo) count(userID primitive.ObjectID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.entries {
		if e.n.UserID == userID {
			count++
		}
	}
	return count
}
