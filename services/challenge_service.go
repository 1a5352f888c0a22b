package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/db"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/types/challenge"
)

const definitionColumns = `id, title, title_ar, description, description_ar, cost, reward,
	failure_penalty, difficulty, time_limit_minutes, icon, source, created_at`

const attemptColumns = `id, user_id, challenge_id, status, scheduled_at, deadline_at,
	completed_at, failed_at, proof_url, ai_feedback, reward_claimed, created_at`

type ChallengeService struct {
	db     db.DBTX
	logger logging.Logger
}

func NewChallengeService(conn db.DBTX, logger logging.Logger) *ChallengeService {
	return &ChallengeService{db: conn, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*challenge.Definition, error) {
	var d challenge.Definition
	var difficulty, icon, source string
	err := row.Scan(
		&d.ID,
		&d.Title,
		&d.TitleAr,
		&d.Description,
		&d.DescriptionAr,
		&d.Cost,
		&d.Reward,
		&d.FailurePenalty,
		&difficulty,
		&d.TimeLimitMinutes,
		&icon,
		&source,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Difficulty = challenge.Difficulty(difficulty)
	d.Icon = challenge.Icon(icon)
	d.Source = challenge.Source(source)
	return &d, nil
}

func scanAttempt(row rowScanner) (*challenge.PlayerChallenge, error) {
	var pc challenge.PlayerChallenge
	var status string
	err := row.Scan(
		&pc.ID,
		&pc.UserID,
		&pc.ChallengeID,
		&status,
		&pc.ScheduledAt,
		&pc.DeadlineAt,
		&pc.CompletedAt,
		&pc.FailedAt,
		&pc.ProofURL,
		&pc.AIFeedback,
		&pc.RewardClaimed,
		&pc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	pc.Status = challenge.Status(status)
	return &pc, nil
}

func (s *ChallengeService) GetDefinition(ctx context.Context, id string) (*challenge.Definition, error) {
	query := `SELECT ` + definitionColumns + ` FROM challenge_definitions WHERE id = $1`

	d, err := scanDefinition(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

// ListDefinitions returns the static catalog followed by the challenges
// generated for userID, newest first.
func (s *ChallengeService) ListDefinitions(ctx context.Context, userID string) ([]*challenge.Definition, error) {
	query := `
		SELECT ` + definitionColumns + `
		FROM challenge_definitions
		WHERE source = 'static' OR created_by = $1
		ORDER BY (source = 'static') DESC, created_at DESC, id
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	defs := []*challenge.Definition{}
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return defs, nil
}

// SaveDefinitions stores generated challenges. Existing ids are left alone.
func (s *ChallengeService) SaveDefinitions(ctx context.Context, createdBy string, defs []challenge.Definition) error {
	query := `
		INSERT INTO challenge_definitions (
			id, title, title_ar, description, description_ar, cost, reward,
			failure_penalty, difficulty, time_limit_minutes, icon, source, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`

	for _, d := range defs {
		_, err := s.db.Exec(ctx, query,
			d.ID,
			d.Title,
			d.TitleAr,
			d.Description,
			d.DescriptionAr,
			d.Cost,
			d.Reward,
			d.FailurePenalty,
			string(d.Difficulty),
			d.TimeLimitMinutes,
			string(d.Icon),
			string(d.Source),
			createdBy,
		)
		if err != nil {
			return fmt.Errorf("db error saving %s: %w", d.ID, err)
		}
	}
	return nil
}

func (s *ChallengeService) CreateAttempt(ctx context.Context, pc *challenge.PlayerChallenge) error {
	query := `
		INSERT INTO player_challenges (
			id, user_id, challenge_id, status, scheduled_at, deadline_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		pc.ID,
		pc.UserID,
		pc.ChallengeID,
		string(pc.Status),
		pc.ScheduledAt,
		pc.DeadlineAt,
		pc.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return common.ErrAttemptInProgress
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *ChallengeService) GetAttempt(ctx context.Context, userID string, id uuid.UUID) (*challenge.PlayerChallenge, error) {
	query := `SELECT ` + attemptColumns + ` FROM player_challenges WHERE id = $1 AND user_id = $2`

	pc, err := scanAttempt(s.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return pc, nil
}

func (s *ChallengeService) ActivateAttempt(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE player_challenges
		SET status = 'active'
		WHERE id = $1 AND status = 'scheduled'
	`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ResolveAttempt moves an open attempt to a terminal status. An attempt that
// was already resolved yields common.ErrInvalidTransition.
func (s *ChallengeService) ResolveAttempt(ctx context.Context, id uuid.UUID, status challenge.Status, feedback string, proofURL *string, at time.Time) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: cannot resolve to %s", common.ErrInvalidTransition, status)
	}

	query := `
		UPDATE player_challenges
		SET status = $2::text,
			ai_feedback = $3,
			proof_url = COALESCE($4, proof_url),
			completed_at = CASE WHEN $2::text = 'completed' THEN $5::timestamptz END,
			failed_at = CASE WHEN $2::text = 'failed' THEN $5::timestamptz END,
			reward_claimed = ($2::text = 'completed')
		WHERE id = $1 AND status IN ('scheduled', 'active')
	`

	tag, err := s.db.Exec(ctx, query, id, string(status), feedback, proofURL, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: attempt %s is not open", common.ErrInvalidTransition, id)
	}
	return nil
}

// DeleteAttempt removes an open attempt. Resolved attempts are kept.
func (s *ChallengeService) DeleteAttempt(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM player_challenges WHERE id = $1 AND status IN ('scheduled', 'active')`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *ChallengeService) ListAttempts(ctx context.Context, userID string, limit int) ([]*challenge.PlayerChallenge, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM player_challenges
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	return s.queryAttempts(ctx, query, userID, limit)
}

func (s *ChallengeService) ListStaleAttempts(ctx context.Context, now time.Time, limit int) ([]challenge.PlayerChallenge, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM player_challenges
		WHERE status IN ('scheduled', 'active') AND deadline_at < $1
		ORDER BY deadline_at
		LIMIT $2
	`

	ptrs, err := s.queryAttempts(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	out := make([]challenge.PlayerChallenge, len(ptrs))
	for i, pc := range ptrs {
		out[i] = *pc
	}
	return out, nil
}

func (s *ChallengeService) queryAttempts(ctx context.Context, query string, args ...any) ([]*challenge.PlayerChallenge, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	attempts := []*challenge.PlayerChallenge{}
	for rows.Next() {
		pc, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		attempts = append(attempts, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}
