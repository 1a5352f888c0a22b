package workflow

import (
	"context"

	"zcoinsAPI/internal/metrics"
	"zcoinsAPI/internal/types/challenge"
)

// SweepPolicy decides what happens to attempts left open past their deadline.
type SweepPolicy string

const (
	// SweepExpire marks the attempt failed. The cost stays spent and no
	// penalty is charged.
	SweepExpire SweepPolicy = "expire"
	// SweepRefund returns the cost and removes the attempt.
	SweepRefund SweepPolicy = "refund"
)

const expiredFeedback = "expired"

// Sweep settles up to limit overdue attempts and returns how many it handled.
// Errors on single attempts are logged and skipped.
func (e *Engine) Sweep(ctx context.Context, policy SweepPolicy, limit int) (int, error) {
	stale, err := e.store.ListStaleAttempts(ctx, e.now(), limit)
	if err != nil {
		return 0, err
	}

	handled := 0
	for i := range stale {
		att := &stale[i]
		if err := e.expire(ctx, att, policy); err != nil {
			e.logger.Error(ctx, "failed to sweep attempt", "attempt_id", att.ID, "policy", policy, "error", err)
			continue
		}
		handled++
	}

	if handled > 0 {
		e.logger.Info(ctx, "swept overdue attempts", "count", handled, "policy", policy)
	}
	return handled, nil
}

func (e *Engine) expire(ctx context.Context, att *challenge.PlayerChallenge, policy SweepPolicy) error {
	if policy == SweepRefund {
		def, err := e.store.GetDefinition(ctx, att.ChallengeID)
		if err != nil {
			return err
		}
		return e.refund(ctx, att, def.Cost)
	}

	if err := e.store.ResolveAttempt(ctx, att.ID, challenge.StatusFailed, expiredFeedback, nil, e.now()); err != nil {
		return err
	}
	metrics.ChallengeAttempts.WithLabelValues("expired").Inc()
	return nil
}
