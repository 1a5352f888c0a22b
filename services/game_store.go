package services

import (
	"context"

	"zcoinsAPI/internal/db"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/workflow"
)

// GameStore is the workflow's view of Postgres: ledger and challenge records
// over one pool, with InTx binding both to the same transaction.
type GameStore struct {
	*LedgerService
	*ChallengeService
	pool   db.Pool
	logger logging.Logger
}

var _ workflow.Store = (*GameStore)(nil)

func NewGameStore(pool db.Pool, logger logging.Logger) *GameStore {
	return &GameStore{
		LedgerService:    NewLedgerService(pool, logger),
		ChallengeService: NewChallengeService(pool, logger),
		pool:             pool,
		logger:           logger,
	}
}

type gameTx struct {
	*LedgerService
	*ChallengeService
}

func (s *GameStore) InTx(ctx context.Context, fn func(ctx context.Context, tx workflow.Tx) error) error {
	return db.WithTx(ctx, s.pool, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &gameTx{
			LedgerService:    NewLedgerService(tx, s.logger),
			ChallengeService: NewChallengeService(tx, s.logger),
		})
	})
}
