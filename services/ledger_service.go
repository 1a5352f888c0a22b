package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/db"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/metrics"
	"zcoinsAPI/internal/types/ledger"
)

// LedgerService applies balance changes as single statements so concurrent
// requests for the same user cannot lose updates.
type LedgerService struct {
	db     db.DBTX
	logger logging.Logger
}

func NewLedgerService(conn db.DBTX, logger logging.Logger) *LedgerService {
	return &LedgerService{db: conn, logger: logger}
}

// column maps a currency to its ledger column. Only these two literals are
// ever interpolated into SQL.
func column(c ledger.Currency) (string, error) {
	switch c {
	case ledger.Zcoins:
		return "zcoins", nil
	case ledger.Zgold:
		return "zgold", nil
	}
	return "", fmt.Errorf("unknown currency %q", c)
}

func checkAmount(amount int) error {
	if amount < 0 {
		return fmt.Errorf("invalid amount %d", amount)
	}
	return nil
}

func (s *LedgerService) Balance(ctx context.Context, userID string) (ledger.Balance, error) {
	query := `
		SELECT user_id, zcoins, zgold, updated_at
		FROM user_ledgers
		WHERE user_id = $1
	`

	var b ledger.Balance
	err := s.db.QueryRow(ctx, query, userID).Scan(&b.UserID, &b.Zcoins, &b.Zgold, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Balance{}, common.ErrorNotFound
		}
		return ledger.Balance{}, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// Spend subtracts amount only when the balance covers it.
func (s *LedgerService) Spend(ctx context.Context, userID string, c ledger.Currency, amount int) (int, error) {
	col, err := column(c)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		UPDATE user_ledgers
		SET %[1]s = %[1]s - $2, updated_at = NOW()
		WHERE user_id = $1 AND %[1]s >= $2
		RETURNING %[1]s
	`, col)

	var balance int
	if err := s.db.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrInsufficientFunds
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	db.AfterCommit(ctx, metrics.LedgerMutations.WithLabelValues("spend", string(c)).Inc)
	return balance, nil
}

// Credit adds amount, creating the ledger row if needed.
func (s *LedgerService) Credit(ctx context.Context, userID string, c ledger.Currency, amount int) (int, error) {
	col, err := column(c)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO user_ledgers (user_id, %[1]s)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET %[1]s = user_ledgers.%[1]s + EXCLUDED.%[1]s, updated_at = NOW()
		RETURNING %[1]s
	`, col)

	var balance int
	if err := s.db.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	db.AfterCommit(ctx, metrics.LedgerMutations.WithLabelValues("credit", string(c)).Inc)
	return balance, nil
}

// Debit subtracts amount, stopping at zero. A user without a ledger row has
// nothing to lose.
func (s *LedgerService) Debit(ctx context.Context, userID string, c ledger.Currency, amount int) (int, error) {
	col, err := column(c)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		UPDATE user_ledgers
		SET %[1]s = GREATEST(%[1]s - $2, 0), updated_at = NOW()
		WHERE user_id = $1
		RETURNING %[1]s
	`, col)

	var balance int
	if err := s.db.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	db.AfterCommit(ctx, metrics.LedgerMutations.WithLabelValues("debit", string(c)).Inc)
	return balance, nil
}

// EnsureAccount creates the ledger with a starting balance. It reports false
// when the account already existed.
func (s *LedgerService) EnsureAccount(ctx context.Context, userID string, startingZcoins int) (bool, error) {
	query := `
		INSERT INTO user_ledgers (user_id, zcoins, zgold)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`

	tag, err := s.db.Exec(ctx, query, userID, startingZcoins)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	created := tag.RowsAffected() == 1
	if created {
		s.logger.Info(ctx, "ledger created", "user_id", userID, "zcoins", startingZcoins)
	}
	return created, nil
}
