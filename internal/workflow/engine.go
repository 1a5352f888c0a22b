// Package workflow drives one player's attempt at a challenge: confirm the
// cost, pay and schedule, submit proof, get a verdict, and settle currency.
//
// All balance changes go through a Store transaction together with the
// record change they belong to, so an attempt record and its currency
// movement are never observed apart.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/metrics"
	"zcoinsAPI/internal/types/challenge"
	"zcoinsAPI/internal/types/ledger"
)

const defaultTimeLimit = 60 * time.Minute

type Engine struct {
	store     Store
	oracle    Verifier
	proofs    ProofStore
	reminders Reminders
	policy    SweepPolicy
	logger    logging.Logger
	now       func() time.Time
}

type Option func(*Engine)

// WithProofStore enables proof uploads. Without it proofs are only sent to
// the oracle.
func WithProofStore(p ProofStore) Option {
	return func(e *Engine) { e.proofs = p }
}

func WithReminders(r Reminders) Option {
	return func(e *Engine) { e.reminders = r }
}

// WithSweepPolicy sets what happens to an attempt found past its deadline
// on resume. The default is SweepExpire.
func WithSweepPolicy(p SweepPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, verifier Verifier, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		oracle: verifier,
		policy: SweepExpire,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin opens a workflow for def in the confirm state. Nothing is written
// until Schedule.
func (e *Engine) Begin(userID string, def challenge.Definition, cb Callbacks) *Workflow {
	return &Workflow{
		engine:    e,
		userID:    userID,
		def:       def,
		state:     StateConfirm,
		callbacks: cb,
	}
}

// Start is Begin, Confirm and Schedule for callers that collect the delay
// up front.
func (e *Engine) Start(ctx context.Context, userID, challengeID string, delay time.Duration, cb Callbacks) (*Workflow, error) {
	def, err := e.store.GetDefinition(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	w := e.Begin(userID, *def, cb)
	if err := w.Confirm(ctx); err != nil {
		return nil, err
	}
	if err := w.Schedule(ctx, delay); err != nil {
		return nil, err
	}
	return w, nil
}

// Resume rehydrates an open attempt at the upload step. A scheduled attempt
// becomes active. An attempt past its deadline is settled with the engine's
// sweep policy and cannot be resumed.
func (e *Engine) Resume(ctx context.Context, userID string, attemptID uuid.UUID, cb Callbacks) (*Workflow, error) {
	att, err := e.store.GetAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if att.Status.Terminal() {
		return nil, fmt.Errorf("%w: attempt is %s", common.ErrInvalidTransition, att.Status)
	}
	if err := e.closeIfOverdue(ctx, att); err != nil {
		return nil, err
	}

	def, err := e.store.GetDefinition(ctx, att.ChallengeID)
	if err != nil {
		return nil, err
	}

	if att.Status == challenge.StatusScheduled {
		if err := e.store.ActivateAttempt(ctx, att.ID); err != nil {
			return nil, err
		}
		att.Status = challenge.StatusActive
	}

	return &Workflow{
		engine:    e,
		userID:    userID,
		def:       *def,
		state:     StateUpload,
		attempt:   att,
		callbacks: cb,
	}, nil
}

// commit pays the cost and creates the attempt in one transaction.
func (e *Engine) commit(ctx context.Context, userID string, def challenge.Definition, delay time.Duration) (*challenge.PlayerChallenge, int, error) {
	now := e.now()
	limit := def.TimeLimit()
	if limit <= 0 {
		limit = defaultTimeLimit
	}

	att := &challenge.PlayerChallenge{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: def.ID,
		Status:      challenge.StatusActive,
		ScheduledAt: now.Add(delay),
		CreatedAt:   now,
	}
	if delay > 0 {
		att.Status = challenge.StatusScheduled
	}
	att.DeadlineAt = att.ScheduledAt.Add(limit)

	var balance int
	err := e.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		b, err := tx.Spend(ctx, userID, ledger.Zcoins, def.Cost)
		if err != nil {
			return err
		}
		balance = b
		return tx.CreateAttempt(ctx, att)
	})
	if err != nil {
		return nil, 0, err
	}
	return att, balance, nil
}

// refund returns the cost and removes the attempt in one transaction.
func (e *Engine) refund(ctx context.Context, att *challenge.PlayerChallenge, cost int) error {
	err := e.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Credit(ctx, att.UserID, ledger.Zcoins, cost); err != nil {
			return err
		}
		return tx.DeleteAttempt(ctx, att.ID)
	})
	if err != nil {
		return err
	}

	metrics.ChallengeAttempts.WithLabelValues("refunded").Inc()
	return nil
}

// closeIfOverdue settles att with the sweep policy once its deadline has
// passed and reports that as an invalid transition.
func (e *Engine) closeIfOverdue(ctx context.Context, att *challenge.PlayerChallenge) error {
	if e.now().Before(att.DeadlineAt) {
		return nil
	}
	if err := e.expire(ctx, att, e.policy); err != nil {
		e.logger.Error(ctx, "failed to close overdue attempt", "attempt_id", att.ID, "policy", e.policy, "error", err)
	}
	return fmt.Errorf("%w: attempt %s passed its deadline", common.ErrInvalidTransition, att.ID)
}

func (e *Engine) queueReminder(ctx context.Context, att *challenge.PlayerChallenge, def challenge.Definition) {
	if e.reminders == nil {
		return
	}
	if err := e.reminders.ScheduleReminder(ctx, att.UserID, att.ID, def, att.ScheduledAt); err != nil {
		e.logger.Warn(ctx, "reminder not queued", "attempt_id", att.ID, "error", err)
	}
}
