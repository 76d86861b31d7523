package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-eventsphere/internal/config"
	"go-eventsphere/internal/features/event"
	"go-eventsphere/internal/features/notification"
	"go-eventsphere/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Seeds demo events and notifications for local development and prints a
// token for the demo student so the API can be exercised by hand.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	utils.SetSecret(cfg.JWTSecret)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.DBName)

	studentID := primitive.NewObjectID()
	clubID := primitive.NewObjectID()

	events := db.Collection("events")
	workshop := event.Event{
		ID:                primitive.NewObjectID(),
		Title:             "Intro to Distributed Systems",
		Description:       "Hands-on workshop hosted by the CS club.",
		Date:              time.Now().AddDate(0, 0, 7),
		Time:              "17:30",
		Location:          "Lecture Hall B",
		Status:            event.StatusApproved,
		CreatedBy:         clubID,
		Attendees:         []event.Attendee{},
		RegistrationLimit: 60,
		CreatedAt:         time.Now(),
	}
	hackathon := event.Event{
		ID:          primitive.NewObjectID(),
		Title:       "Spring Hackathon",
		Description: "24 hours, teams of four.",
		Date:        time.Now().AddDate(0, 0, 14),
		Time:        "09:00",
		Location:    "Main Auditorium",
		Status:      event.StatusPending,
		CreatedBy:   clubID,
		Attendees:   []event.Attendee{},
		CreatedAt:   time.Now(),
	}
	if _, err := events.InsertMany(ctx, []interface{}{workshop, hackathon}); err != nil {
		log.Fatalf("Failed to seed events: %v", err)
	}

	soon := time.Now().Add(2 * time.Minute)
	notifications := db.Collection("notifications")
	seedNotifications := []interface{}{
		notification.Notification{
			ID:        primitive.NewObjectID(),
			UserID:    studentID,
			Title:     "Welcome to EventSphere",
			Message:   "Browse upcoming events and register with one click.",
			Kind:      notification.KindInfo,
			CreatedAt: time.Now(),
		},
		notification.Notification{
			ID:           primitive.NewObjectID(),
			UserID:       studentID,
			Title:        fmt.Sprintf("Event Reminder: %s", workshop.Title),
			Message:      fmt.Sprintf("Your event %q starts in 2 minutes", workshop.Title),
			Kind:         notification.KindReminder,
			ScheduledFor: &soon,
			EventID:      &workshop.ID,
			ActionURL:    fmt.Sprintf("/event.html?id=%s", workshop.ID.Hex()),
			CreatedAt:    time.Now(),
		},
	}
	if _, err := notifications.InsertMany(ctx, seedNotifications); err != nil {
		log.Fatalf("Failed to seed notifications: %v", err)
	}

	studentToken, err := utils.GenerateToken(studentID, []string{"student"})
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	adminToken, err := utils.GenerateToken(primitive.NewObjectID(), []string{"admin"})
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println("Seeded 2 events and 2 notifications")
	fmt.Printf("Student ID:    %s\n", studentID.Hex())
	fmt.Printf("Student token: %s\n", studentToken)
	fmt.Printf("Admin token:   %s\n", adminToken)
}
