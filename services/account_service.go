package services

import (
	"context"
	"fmt"

	"zcoinsAPI/internal/db"
	"zcoinsAPI/internal/logging"
)

// AccountService handles identity-provider lifecycle events.
type AccountService struct {
	db            db.Pool
	logger        logging.Logger
	welcomeZcoins int
}

func NewAccountService(pool db.Pool, welcomeZcoins int, logger logging.Logger) *AccountService {
	return &AccountService{db: pool, logger: logger, welcomeZcoins: welcomeZcoins}
}

// EnsureAccount opens a ledger with the welcome balance. Repeated calls are
// harmless.
func (s *AccountService) EnsureAccount(ctx context.Context, userID string) (bool, error) {
	return NewLedgerService(s.db, s.logger).EnsureAccount(ctx, userID, s.welcomeZcoins)
}

// DeleteAccount removes every row owned by userID.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	tables := []string{
		"reminders",
		"device_tokens",
		"daily_reward_claims",
		"user_purchases",
		"user_inventory",
		"player_challenges",
		"user_ledgers",
	}

	err := db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		for _, table := range tables {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID); err != nil {
				return fmt.Errorf("db error deleting from %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "account deleted", "user_id", userID)
	return nil
}
