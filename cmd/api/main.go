package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-eventsphere/internal/common/api"
	"go-eventsphere/internal/config"
	"go-eventsphere/internal/database"
	"go-eventsphere/internal/features/event"
	"go-eventsphere/internal/features/notification"
	"go-eventsphere/internal/features/system"
	"go-eventsphere/internal/logger"
	"go-eventsphere/internal/middleware"
	"go-eventsphere/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// StartScheduler ties the notification scheduler to the app lifecycle.
func StartScheduler(lc fx.Lifecycle, scheduler *notification.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, notificationRepo notification.NotificationRepository, eventRepo event.EventRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := notificationRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure notification indexes: %v", err)
				}
				if err := eventRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure event indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// eventFinderAdapter exposes the event repository through the narrow lookup
// interface the notification feature expects, breaking the package cycle.
type eventFinderAdapter struct {
	repo event.EventRepository
}

func (a *eventFinderAdapter) FindEvent(ctx context.Context, id primitive.ObjectID) (*notification.EventRef, error) {
	e, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	return &notification.EventRef{ID: e.ID, Title: e.Title}, nil
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			notification.NewNotificationRepository,
			event.NewEventRepository,

			// Initialize Service
			notification.NewNotificationService,
			event.NewEventService,
			notification.NewHub,
			notification.NewScheduler,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(r event.EventRepository) notification.EventFinder {
				return &eventFinderAdapter{repo: r}
			},
			func(h *notification.Hub) notification.Sink { return h },

			// Initialize Controller
			notification.NewNotificationController,
			event.NewEventController,

			// Initialize API Routes
			AsRoute(notification.NewNotificationApi),
			AsRoute(event.NewEventApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			RegisterAllRoutesWithAnnotation,
			StartServer,
			StartScheduler,
			InitializeIndexes,
		),
	)

	app.Run()
}
