// Package workers runs the periodic jobs: closing overdue attempts and
// delivering due reminders.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/workflow"
)

const (
	sweepBatch    = 100
	reminderBatch = 100
	jobTimeout    = 2 * time.Minute
)

type Sweeper interface {
	Sweep(ctx context.Context, policy workflow.SweepPolicy, limit int) (int, error)
}

type Dispatcher interface {
	DispatchDue(ctx context.Context, limit int) (int, error)
}

type Config struct {
	SweepInterval    time.Duration
	SweepPolicy      workflow.SweepPolicy
	ReminderInterval time.Duration
}

type Workers struct {
	sched      gocron.Scheduler
	sweeper    Sweeper
	dispatcher Dispatcher
	policy     workflow.SweepPolicy
	logger     logging.Logger
}

// New registers the jobs without starting them. dispatcher may be nil, in
// which case no reminder job is scheduled.
func New(cfg Config, sweeper Sweeper, dispatcher Dispatcher, logger logging.Logger) (*Workers, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	w := &Workers{
		sched:      sched,
		sweeper:    sweeper,
		dispatcher: dispatcher,
		policy:     cfg.SweepPolicy,
		logger:     logger,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(w.sweepOnce),
		gocron.WithName("sweep-stale-attempts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule sweep: %w", err)
	}

	if dispatcher != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(cfg.ReminderInterval),
			gocron.NewTask(w.dispatchOnce),
			gocron.WithName("dispatch-reminders"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("failed to schedule reminders: %w", err)
		}
	}

	return w, nil
}

func (w *Workers) Start() {
	w.sched.Start()
	w.logger.Info(context.Background(), "background workers started", "jobs", len(w.sched.Jobs()), "sweep_policy", w.policy)
}

// Stop waits for running jobs to finish.
func (w *Workers) Stop() error {
	return w.sched.Shutdown()
}

func (w *Workers) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := w.sweeper.Sweep(ctx, w.policy, sweepBatch)
	if err != nil {
		w.logger.Error(ctx, "sweep failed", "swept", n, "error", err)
		return
	}
	if n > 0 {
		w.logger.Info(ctx, "swept overdue attempts", "count", n, "policy", w.policy)
	}
}

func (w *Workers) dispatchOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := w.dispatcher.DispatchDue(ctx, reminderBatch); err != nil {
		w.logger.Error(ctx, "reminder dispatch failed", "error", err)
	}
}
