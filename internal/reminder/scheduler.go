// Package reminder dispatches follow-up emails for completed decision
// sessions.
package reminder

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/naapim/naapim/internal/email"
	"github.com/naapim/naapim/internal/models"
	"github.com/naapim/naapim/internal/store"
)

// DefaultSchedule polls for due reminders every minute.
const DefaultSchedule = "* * * * *"

// Scheduler periodically delivers due follow-up reminders.
type Scheduler struct {
	store    store.Store
	sender   email.Sender
	cron     *cron.Cron
	schedule string
}

// Opts holds Scheduler configuration.
type Opts struct {
	Schedule string
}

// Option configures the Scheduler.
type Option func(*Opts)

// WithSchedule overrides the cron polling schedule.
func WithSchedule(spec string) Option {
	return func(o *Opts) { o.Schedule = spec }
}

// NewScheduler creates a reminder scheduler over the given store and sender.
func NewScheduler(st store.Store, sender email.Sender, opts ...Option) *Scheduler {
	cfg := Opts{Schedule: DefaultSchedule}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler{
		store:    st,
		sender:   sender,
		cron:     cron.New(),
		schedule: cfg.Schedule,
	}
}

// Start begins the dispatch loop. It returns an error if the schedule
// spec is invalid.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.DispatchDue(ctx, time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to register reminder schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	slog.Info("Reminder scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts the dispatch loop and waits for a running dispatch to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Reminder scheduler stopped")
}

// DispatchDue sends every reminder due at or before now. Failures on a
// single reminder are logged and do not block the rest of the batch.
func (s *Scheduler) DispatchDue(ctx context.Context, now time.Time) {
	due, err := s.store.ListDueReminders(now)
	if err != nil {
		slog.Error("Scheduler.DispatchDue: failed to list due reminders", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}
	slog.Debug("Scheduler.DispatchDue: dispatching reminders", "count", len(due))

	for _, r := range due {
		if err := s.dispatch(ctx, r, now); err != nil {
			slog.Error("Scheduler.DispatchDue: reminder dispatch failed", "error", err, "reminderID", r.ID)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, r models.Reminder, now time.Time) error {
	session, err := s.store.GetSession(r.SessionID)
	subject := "naapim: kararının üzerinden zaman geçti, nasıl gitti?"
	question := ""
	if err == nil && session != nil {
		question = session.UserQuestion
	}

	if err := s.sender.Send(ctx, r.Email, subject, reminderBody(question)); err != nil {
		return err
	}
	if err := s.store.MarkReminderSent(r.ID, now); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

func reminderBody(question string) string {
	if question == "" {
		return "<p>Merhaba! Bir süre önce naapim ile bir karar üzerinde çalışmıştın. " +
			"Sonuç nasıl oldu? Deneyimini paylaşırsan aynı kararla boğuşan başkalarına yardımcı olursun.</p>"
	}
	return fmt.Sprintf("<p>Merhaba! Bir süre önce naapim ile şu karar üzerinde çalışmıştın:</p>"+
		"<blockquote>%s</blockquote>"+
		"<p>Sonuç nasıl oldu? Deneyimini paylaşırsan aynı kararla boğuşan başkalarına yardımcı olursun.</p>",
		html.EscapeString(question))
}
