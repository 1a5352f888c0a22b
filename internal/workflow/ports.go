package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"zcoinsAPI/internal/oracle"
	"zcoinsAPI/internal/types/challenge"
	"zcoinsAPI/internal/types/ledger"
)

// Ledger is the currency side of a store. Spend fails with
// common.ErrInsufficientFunds instead of going negative; Debit clamps at zero.
type Ledger interface {
	Balance(ctx context.Context, userID string) (ledger.Balance, error)
	Spend(ctx context.Context, userID string, c ledger.Currency, amount int) (int, error)
	Credit(ctx context.Context, userID string, c ledger.Currency, amount int) (int, error)
	Debit(ctx context.Context, userID string, c ledger.Currency, amount int) (int, error)
}

// Attempts is the challenge record side of a store.
type Attempts interface {
	GetDefinition(ctx context.Context, id string) (*challenge.Definition, error)
	CreateAttempt(ctx context.Context, pc *challenge.PlayerChallenge) error
	GetAttempt(ctx context.Context, userID string, id uuid.UUID) (*challenge.PlayerChallenge, error)
	ActivateAttempt(ctx context.Context, id uuid.UUID) error
	ResolveAttempt(ctx context.Context, id uuid.UUID, status challenge.Status, feedback string, proofURL *string, at time.Time) error
	DeleteAttempt(ctx context.Context, id uuid.UUID) error
	ListStaleAttempts(ctx context.Context, now time.Time, limit int) ([]challenge.PlayerChallenge, error)
}

type Tx interface {
	Ledger
	Attempts
}

// Store runs single operations directly and groups writes with InTx. Either
// every write inside fn is applied or none is.
type Store interface {
	Tx
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Verifier interface {
	Verify(ctx context.Context, req oracle.VerifyRequest) (oracle.Verdict, error)
}

// ProofStore keeps the submitted image and returns its public URL.
type ProofStore interface {
	UploadProof(ctx context.Context, userID string, attemptID uuid.UUID, data []byte, contentType string) (string, error)
}

// Reminders queues a push notification for a scheduled attempt.
type Reminders interface {
	ScheduleReminder(ctx context.Context, userID string, attemptID uuid.UUID, def challenge.Definition, at time.Time) error
}
