package notification

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

// The unique reminder index must claim uniqueness only over documents that
// carry an event_id; without the $exists clause Mongo keys every event-less
// reminder under (user, null) and rejects a user's second one.
func TestReminderUniqueIndexScopedToEventReminders(t *testing.T) {
	var filter bson.M
	for _, model := range notificationIndexes() {
		if model.Options == nil || model.Options.Unique == nil || !*model.Options.Unique {
			continue
		}
		if filter != nil {
			t.Fatal("more than one unique index defined")
		}
		pf, ok := model.Options.PartialFilterExpression.(bson.M)
		if !ok {
			t.Fatal("unique index has no partial filter expression")
		}
		filter = pf
	}
	if filter == nil {
		t.Fatal("no unique reminder index defined")
	}

	if kind, ok := filter["kind"].(NotificationKind); !ok || kind != KindReminder {
		t.Errorf("partial filter kind = %v, want %q", filter["kind"], KindReminder)
	}
	exists, ok := filter["event_id"].(bson.M)
	if !ok {
		t.Fatalf("partial filter event_id clause = %v, want an $exists document", filter["event_id"])
	}
	if v, ok := exists["$exists"].(bool); !ok || !v {
		t.Errorf("event_id $exists = %v, want true", exists["$exists"])
	}
}
