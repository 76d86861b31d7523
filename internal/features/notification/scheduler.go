package notification

import (
	"context"
	"sync"
	"time"

	"go-eventsphere/internal/config"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sink receives a reminder once the scheduler has marked it processed.
type Sink interface {
	Push(userID primitive.ObjectID, n *Notification) error
}

// Scheduler polls the store for due reminders on a fixed period and activates
// each at most once. The retention sweep runs on its own daily cron schedule,
// separate from the reminder ticker.
type Scheduler struct {
	service  NotificationService
	sink     Sink
	log      *zap.Logger
	interval time.Duration
	cleanup  string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	cron    *cron.Cron

	// sweepMu guards against overlapping sweeps: a tick that arrives while
	// the previous sweep is still running is skipped, not queued.
	sweepMu sync.Mutex
}

func NewScheduler(service NotificationService, sink Sink, log *zap.Logger, cfg *config.Config) *Scheduler {
	return &Scheduler{
		service:  service,
		sink:     sink,
		log:      log,
		interval: cfg.ReminderInterval,
		cleanup:  cfg.CleanupSchedule,
	}
}

// Start is a no-op if the scheduler is already running. One sweep runs
// immediately so reminders that became due before startup are not delayed a
// full period.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cleanup, s.runCleanup); err != nil {
		s.log.Error("invalid cleanup schedule, retention sweep disabled",
			zap.String("schedule", s.cleanup), zap.Error(err))
	}
	s.cron.Start()

	go s.loop(s.stopCh)
	s.mu.Unlock()

	s.log.Info("notification scheduler started", zap.Duration("interval", s.interval))
	s.ProcessDueReminders(context.Background())
}

// Stop cancels future ticks. An in-flight sweep is not awaited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.cron.Stop()
	s.running = false
	s.log.Info("notification scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.ProcessDueReminders(context.Background())
		}
	}
}

// ProcessDueReminders runs one sweep: fetch due reminders, then for each one
// mark it processed before dispatching. Marking first is deliberate
// at-most-once delivery; a dispatch failure or crash mid-sweep must never
// cause a second delivery. Per-record failures are logged and do not abort
// the rest of the batch.
func (s *Scheduler) ProcessDueReminders(ctx context.Context) {
	if !s.sweepMu.TryLock() {
		s.log.Warn("reminder sweep still in progress, skipping tick")
		return
	}
	defer s.sweepMu.Unlock()

	due, err := s.service.GetDueReminders(ctx)
	if err != nil {
		s.log.Error("failed to fetch due reminders", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	s.log.Info("processing due reminders", zap.Int("count", len(due)))
	for i := range due {
		reminder := &due[i]

		if err := s.service.MarkReminderProcessed(ctx, reminder.ID); err != nil {
			s.log.Error("failed to mark reminder processed",
				zap.String("id", reminder.ID.Hex()), zap.Error(err))
			continue
		}

		s.dispatch(reminder)
	}
}

func (s *Scheduler) dispatch(n *Notification) {
	s.log.Info("reminder due",
		zap.String("id", n.ID.Hex()),
		zap.String("user_id", n.UserID.Hex()),
		zap.String("title", n.Title))

	if s.sink == nil {
		return
	}
	if err := s.sink.Push(n.UserID, n); err != nil {
		s.log.Warn("failed to push reminder to delivery sink",
			zap.String("id", n.ID.Hex()), zap.Error(err))
	}
}

func (s *Scheduler) runCleanup() {
	if err := s.service.CleanupOldNotifications(context.Background()); err != nil {
		s.log.Error("notification retention sweep failed", zap.Error(err))
	}
}
