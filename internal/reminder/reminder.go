// Package reminder periodically delivers follow-up reminders that became due.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/notify"
	"github.com/spigell/ta-nexus/internal/store"
)

// DefaultSchedule checks for due reminders every 15 minutes.
const DefaultSchedule = "*/15 * * * *"

type Options struct {
	Schedule string `mapstructure:"schedule"`
}

type Dispatcher struct {
	repo     store.Repository
	notifier notify.Notifier
	schedule string
	logger   *zap.Logger
	now      func() time.Time
}

func New(repo store.Repository, notifier notify.Notifier, opts Options, log *zap.Logger) (*Dispatcher, error) {
	schedule := opts.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}

	l := logger.Component(log, "reminder")
	if notifier == nil {
		notifier = notify.NewLog(log)
	}

	return &Dispatcher{
		repo:     repo,
		notifier: notifier,
		schedule: schedule,
		logger:   l,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// DispatchDue notifies every pending reminder whose time has come and marks
// it sent. A reminder that could not be delivered stays pending and is
// retried on the next run.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := d.now()

	due, err := d.repo.DueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, r := range due {
		notice := notify.ReminderNotice{
			ReminderID:  r.ID,
			CandidateID: r.CandidateID,
			SessionID:   r.SessionID,
			Score:       r.TriggerScore,
			Note:        r.Note,
			DueAt:       r.FollowUpAt,
		}
		if profile, err := d.repo.GetCandidate(ctx, r.CandidateID); err == nil {
			notice.CandidateName = profile.Name
		}

		if err := d.notifier.Reminder(ctx, notice); err != nil {
			d.logger.Warn("failed to deliver reminder", zap.String("reminder_id", r.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		if err := d.repo.MarkReminderSent(ctx, r.ID, now); err != nil {
			errs = append(errs, fmt.Errorf("mark reminder %s sent: %w", r.ID, err))
			continue
		}
		sent++
	}

	d.logger.Debug("reminders dispatched", zap.Int("due", len(due)), zap.Int("sent", sent))

	return sent, errors.Join(errs...)
}

// Run dispatches on the configured schedule until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	cl := cronLogger{logger: d.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := c.AddFunc(d.schedule, func() {
		if _, err := d.DispatchDue(ctx); err != nil {
			d.logger.Error("reminder dispatch failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	d.logger.Info("reminder dispatcher started", zap.String("schedule", d.schedule))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	d.logger.Info("reminder dispatcher stopped")

	return nil
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
