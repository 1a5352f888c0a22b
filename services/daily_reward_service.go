package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/db"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/types/ledger"
	"zcoinsAPI/internal/types/reward"
)

type DailyRewardService struct {
	db     db.Pool
	logger logging.Logger
	now    func() time.Time
}

func NewDailyRewardService(pool db.Pool, logger logging.Logger) *DailyRewardService {
	return &DailyRewardService{db: pool, logger: logger, now: time.Now}
}

type claimRow struct {
	lastClaimedAt time.Time
	streak        int
	claimCount    int
}

func (s *DailyRewardService) lastClaim(ctx context.Context, conn db.DBTX, userID string) (*claimRow, error) {
	query := `
		SELECT last_claimed_at, streak, claim_count
		FROM daily_reward_claims
		WHERE user_id = $1
	`

	var row claimRow
	err := conn.QueryRow(ctx, query, userID).Scan(&row.lastClaimedAt, &row.streak, &row.claimCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &row, nil
}

func (s *DailyRewardService) Status(ctx context.Context, userID string) (*reward.Status, error) {
	last, err := s.lastClaim(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	st := &reward.Status{Available: true}
	var lastAt *time.Time
	streak := 0
	if last != nil {
		lastAt = &last.lastClaimedAt
		streak = last.streak
		st.LastClaimedAt = lastAt
		st.Streak = last.streak
		st.ClaimCount = last.claimCount

		next := last.lastClaimedAt.Add(reward.Cooldown)
		if now.Before(next) {
			st.Available = false
			st.NextClaimAt = &next
		}
	}

	at := now
	if st.NextClaimAt != nil {
		at = *st.NextClaimAt
	}
	st.NextStreak = reward.NextStreak(lastAt, streak, at)
	st.NextZcoins = reward.ZcoinsForStreak(st.NextStreak)
	st.NextZgold = reward.ZgoldForStreak(st.NextStreak)
	return st, nil
}

// Claim pays today's reward. The claim row is upserted only when the
// cooldown has passed, which also guards against two concurrent claims.
func (s *DailyRewardService) Claim(ctx context.Context, userID string) (*reward.Claim, error) {
	now := s.now()
	var claim *reward.Claim

	err := db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		last, err := s.lastClaim(ctx, tx, userID)
		if err != nil {
			return err
		}

		var lastAt *time.Time
		prevStreak := 0
		if last != nil {
			if now.Sub(last.lastClaimedAt) < reward.Cooldown {
				return common.ErrCooldownActive
			}
			lastAt = &last.lastClaimedAt
			prevStreak = last.streak
		}
		streak := reward.NextStreak(lastAt, prevStreak, now)

		upsert := `
			INSERT INTO daily_reward_claims (user_id, last_claimed_at, streak, claim_count)
			VALUES ($1, $2, $3, 1)
			ON CONFLICT (user_id) DO UPDATE
			SET last_claimed_at = EXCLUDED.last_claimed_at,
				streak = EXCLUDED.streak,
				claim_count = daily_reward_claims.claim_count + 1
			WHERE daily_reward_claims.last_claimed_at <= $4
			RETURNING claim_count
		`
		var count int
		err = tx.QueryRow(ctx, upsert, userID, now, streak, now.Add(-reward.Cooldown)).Scan(&count)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.ErrCooldownActive
			}
			return fmt.Errorf("db error: %w", err)
		}

		ledgerSvc := NewLedgerService(tx, s.logger)
		c := &reward.Claim{
			Streak:        streak,
			ZcoinsAwarded: reward.ZcoinsForStreak(streak),
			ZgoldAwarded:  reward.ZgoldForStreak(streak),
			ClaimedAt:     now,
		}
		if c.Zcoins, err = ledgerSvc.Credit(ctx, userID, ledger.Zcoins, c.ZcoinsAwarded); err != nil {
			return err
		}
		if c.ZgoldAwarded > 0 {
			if c.Zgold, err = ledgerSvc.Credit(ctx, userID, ledger.Zgold, c.ZgoldAwarded); err != nil {
				return err
			}
		} else {
			bal, err := ledgerSvc.Balance(ctx, userID)
			if err != nil {
				return err
			}
			c.Zgold = bal.Zgold
		}

		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "daily reward claimed", "user_id", userID, "streak", claim.Streak, "zcoins", claim.ZcoinsAwarded)
	return claim, nil
}
