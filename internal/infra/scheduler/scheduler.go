package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"alliance_quest_bot/internal/app" // For the ReminderProcessor interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler drives the recurring AQ reminder poll. The cadence is
// a tuning parameter; it only has to be fine enough to land within the
// configured reminder minute.
type ReminderScheduler struct {
	cronEngine            *cron.Cron
	reminders             app.ReminderProcessor
	logger                *logrus.Entry
	cronSpecReminderCheck string
	tickInFlight          atomic.Bool
}

func NewReminderScheduler(
	reminders app.ReminderProcessor,
	logger *logrus.Entry,
	cronSpecReminderCheck string, // e.g. "*/5 * * * *" (every 5 minutes)
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine:            cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		reminders:             reminders,
		logger:                logger,
		cronSpecReminderCheck: cronSpecReminderCheck,
	}
}

func (s *ReminderScheduler) Start() {
	s.logger.Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecReminderCheck, s.runReminderTick)
	if err != nil {
		s.logger.WithError(err).Fatal("Could not add reminder poll cron job")
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpecReminderCheck).Info("Reminder scheduler started")
}

// runReminderTick executes one poll. Ticks never overlap: if the previous
// tick is still in flight the new one is skipped, not queued.
func (s *ReminderScheduler) runReminderTick() {
	if !s.tickInFlight.CompareAndSwap(false, true) {
		s.logger.Warn("Previous reminder tick still running, skipping this tick")
		return
	}
	defer s.tickInFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute) // Context for the job
	defer cancel()

	if err := s.reminders.ProcessDueReminders(ctx, time.Now()); err != nil {
		s.logger.WithError(err).Error("Error during reminder poll")
	}
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Reminder scheduler gracefully stopped")
}
