package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/metrics"
	"zcoinsAPI/internal/oracle"
	"zcoinsAPI/internal/types/challenge"
	"zcoinsAPI/internal/types/ledger"
)

type State string

const (
	StateConfirm   State = "confirm"
	StateSchedule  State = "schedule"
	StateUpload    State = "upload"
	StateVerifying State = "verifying"
	StateResult    State = "result"
	StateClosed    State = "closed"

	// StateScheduled is the exit taken when the attempt starts later. The
	// player comes back through Engine.Resume.
	StateScheduled State = "scheduled"
	StateCancelled State = "cancelled"
)

// Callbacks are fired once, on Dismiss, with the settled outcome.
type Callbacks struct {
	OnSuccess func(Outcome)
	OnFailure func(Outcome)
}

type Proof struct {
	Data        []byte
	ContentType string
}

// dataURL encodes the image the way the oracle expects it.
func (p Proof) dataURL() string {
	ct := p.ContentType
	if ct == "" {
		ct = http.DetectContentType(p.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

type Outcome struct {
	AttemptID  uuid.UUID        `json:"attempt_id"`
	Status     challenge.Status `json:"status"`
	FeedbackAr string           `json:"feedback_ar"`
	// Delta is the nominal change: +reward or -penalty. The stored balance
	// never drops below zero, so a debit may apply less.
	Delta    int    `json:"delta"`
	Balance  int    `json:"balance"`
	ProofURL string `json:"proof_url,omitempty"`
}

// Workflow is one player's pass through a challenge. It is not safe for
// concurrent use.
type Workflow struct {
	engine    *Engine
	userID    string
	def       challenge.Definition
	state     State
	attempt   *challenge.PlayerChallenge
	balance   int
	outcome   *Outcome
	callbacks Callbacks
	dismissed bool
}

func (w *Workflow) State() State                        { return w.state }
func (w *Workflow) Definition() challenge.Definition    { return w.def }
func (w *Workflow) Attempt() *challenge.PlayerChallenge { return w.attempt }
func (w *Workflow) Outcome() *Outcome                   { return w.outcome }

// Balance is the zcoins balance last observed by the workflow.
func (w *Workflow) Balance() int { return w.balance }

func (w *Workflow) transitionErr(op string) error {
	return fmt.Errorf("%w: %s from %s", common.ErrInvalidTransition, op, w.state)
}

// Confirm checks the player can afford the cost. No write happens here.
func (w *Workflow) Confirm(ctx context.Context) error {
	if w.state != StateConfirm {
		return w.transitionErr("confirm")
	}

	bal, err := w.engine.store.Balance(ctx, w.userID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	w.balance = bal.Zcoins

	if bal.Zcoins < w.def.Cost {
		return fmt.Errorf("%w: need %d zcoins, have %d", common.ErrInsufficientFunds, w.def.Cost, bal.Zcoins)
	}

	w.state = StateSchedule
	return nil
}

// Schedule pays the cost and opens the attempt. A zero delay goes straight to
// upload; otherwise the workflow exits and a reminder is queued.
func (w *Workflow) Schedule(ctx context.Context, delay time.Duration) error {
	if w.state != StateSchedule {
		return w.transitionErr("schedule")
	}
	if delay < 0 {
		delay = 0
	}

	att, bal, err := w.engine.commit(ctx, w.userID, w.def, delay)
	if err != nil {
		return err
	}
	w.attempt = att
	w.balance = bal

	if delay == 0 {
		metrics.ChallengeAttempts.WithLabelValues("started").Inc()
		w.state = StateUpload
		return nil
	}

	metrics.ChallengeAttempts.WithLabelValues("scheduled").Inc()
	w.state = StateScheduled
	w.engine.queueReminder(ctx, att, w.def)
	return nil
}

// SubmitProof sends the proof to the oracle and settles the attempt. When the
// oracle cannot produce a verdict the cost is refunded, the attempt removed
// and the workflow returns to upload; submitting again pays the cost again.
func (w *Workflow) SubmitProof(ctx context.Context, proof Proof) (*Outcome, error) {
	if w.state != StateUpload {
		return nil, w.transitionErr("submit proof")
	}
	if len(proof.Data) == 0 {
		return nil, common.ErrProofRequired
	}

	e := w.engine
	if w.attempt != nil {
		if err := e.closeIfOverdue(ctx, w.attempt); err != nil {
			w.attempt = nil
			w.state = StateCancelled
			return nil, err
		}
	}
	if w.attempt == nil {
		att, bal, err := e.commit(ctx, w.userID, w.def, 0)
		if err != nil {
			return nil, err
		}
		w.attempt = att
		w.balance = bal
		metrics.ChallengeAttempts.WithLabelValues("started").Inc()
	}

	w.state = StateVerifying
	log := e.logger.With("user_id", w.userID, "attempt_id", w.attempt.ID, "challenge_id", w.def.ID)

	var proofURL *string
	if e.proofs != nil {
		url, err := e.proofs.UploadProof(ctx, w.userID, w.attempt.ID, proof.Data, proof.ContentType)
		if err != nil {
			log.Warn(ctx, "proof upload failed, verifying without stored copy", "error", err)
		} else {
			proofURL = &url
		}
	}

	verdict, err := e.oracle.Verify(ctx, oracle.VerifyRequest{
		ChallengeTitle:       w.def.Title,
		ChallengeDescription: w.def.Description,
		ProofImage:           proof.dataURL(),
		UserID:               w.userID,
	})
	if err != nil {
		return nil, w.compensate(ctx, err)
	}

	status, amount, delta := challenge.StatusFailed, w.def.FailurePenalty, -w.def.FailurePenalty
	if verdict.Success {
		status, amount, delta = challenge.StatusCompleted, w.def.Reward, w.def.Reward
	}

	now := e.now()
	var balance int
	err = e.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if verdict.Success {
			balance, err = tx.Credit(ctx, w.userID, ledger.Zcoins, amount)
		} else {
			balance, err = tx.Debit(ctx, w.userID, ledger.Zcoins, amount)
		}
		if err != nil {
			return err
		}
		return tx.ResolveAttempt(ctx, w.attempt.ID, status, verdict.FeedbackAr, proofURL, now)
	})
	if errors.Is(err, common.ErrInvalidTransition) {
		// closed by the sweep while the oracle was answering
		log.Warn(ctx, "attempt closed before verdict settled", "error", err)
		w.attempt = nil
		w.state = StateCancelled
		return nil, err
	}
	if err != nil {
		// the attempt is still open and already paid for, so a retry
		// re-verifies without charging again
		log.Error(ctx, "failed to settle verdict", "error", err)
		w.state = StateUpload
		return nil, fmt.Errorf("failed to settle attempt: %w", err)
	}

	metrics.ChallengeAttempts.WithLabelValues(string(status)).Inc()

	feedback := verdict.FeedbackAr
	w.attempt.Status = status
	w.attempt.AIFeedback = &feedback
	w.attempt.ProofURL = proofURL
	if verdict.Success {
		w.attempt.CompletedAt = &now
	} else {
		w.attempt.FailedAt = &now
	}
	w.balance = balance

	w.outcome = &Outcome{
		AttemptID:  w.attempt.ID,
		Status:     status,
		FeedbackAr: verdict.FeedbackAr,
		Delta:      delta,
		Balance:    balance,
	}
	if proofURL != nil {
		w.outcome.ProofURL = *proofURL
	}
	w.state = StateResult

	log.Info(ctx, "attempt resolved", "status", status, "delta", delta)
	return w.outcome, nil
}

func (w *Workflow) compensate(ctx context.Context, cause error) error {
	e := w.engine
	w.state = StateUpload

	if err := e.refund(ctx, w.attempt, w.def.Cost); err != nil {
		// keep the attempt so a retry does not charge twice
		e.logger.Error(ctx, "refund after oracle error failed",
			"attempt_id", w.attempt.ID, "oracle_error", cause, "error", err)
		return fmt.Errorf("%w: %w", common.ErrVerificationFailed, errors.Join(cause, err))
	}

	e.logger.Warn(ctx, "oracle error, cost refunded", "attempt_id", w.attempt.ID, "error", cause)
	w.balance += w.def.Cost
	w.attempt = nil
	return fmt.Errorf("%w: %w", common.ErrVerificationFailed, cause)
}

// Cancel abandons the workflow. Currency already spent stays spent.
func (w *Workflow) Cancel() error {
	switch w.state {
	case StateConfirm, StateSchedule, StateUpload:
		w.state = StateCancelled
		return nil
	}
	return w.transitionErr("cancel")
}

// Dismiss closes a settled workflow and fires the matching callback. Calling
// it again is a no-op.
func (w *Workflow) Dismiss() error {
	if w.state == StateClosed {
		return nil
	}
	if w.state != StateResult {
		return w.transitionErr("dismiss")
	}

	w.state = StateClosed
	if w.dismissed {
		return nil
	}
	w.dismissed = true

	cb := w.callbacks.OnFailure
	if w.outcome.Status == challenge.StatusCompleted {
		cb = w.callbacks.OnSuccess
	}
	if cb != nil {
		cb(*w.outcome)
	}
	return nil
}
