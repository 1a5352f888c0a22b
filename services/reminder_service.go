package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zcoinsAPI/internal/db"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/metrics"
	"zcoinsAPI/internal/types/challenge"
	"zcoinsAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// ReminderService queues push reminders for scheduled attempts and
// delivers them when due.
type ReminderService struct {
	db           db.DBTX
	pushProvider PushNotificationProvider
	logger       logging.Logger
	now          func() time.Time
}

func NewReminderService(conn db.DBTX, logger logging.Logger) *ReminderService {
	return &ReminderService{db: conn, logger: logger, now: time.Now}
}

// SetPushProvider plugs in the real push sender. Without one, due reminders
// are marked sent without delivery.
func (s *ReminderService) SetPushProvider(provider PushNotificationProvider) {
	s.pushProvider = provider
}

func (s *ReminderService) ScheduleReminder(ctx context.Context, userID string, attemptID uuid.UUID, def challenge.Definition, at time.Time) error {
	title := "Time for your challenge " + def.Icon.Emoji()
	body := fmt.Sprintf("%s starts now. You have %d minutes to upload your proof.", def.Title, def.TimeLimitMinutes)
	data := map[string]any{
		"type":         "challenge_reminder",
		"attempt_id":   attemptID.String(),
		"challenge_id": def.ID,
		"title_ar":     def.TitleAr,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode reminder data: %w", err)
	}

	query := `
		INSERT INTO reminders (id, user_id, attempt_id, title, body, data, status, scheduled_for, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.Exec(ctx, query,
		uuid.New(),
		userID,
		attemptID,
		title,
		body,
		dataJSON,
		string(notification.ReminderPending),
		at,
		s.now(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *ReminderService) RegisterDevice(ctx context.Context, userID, token, platform string) error {
	query := `
		INSERT INTO device_tokens (user_id, token, platform, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, userID, token, platform); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *ReminderService) DeviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT user_id, token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *ReminderService) dueReminders(ctx context.Context, limit int) ([]*notification.Reminder, error) {
	query := `
		SELECT r.id, r.user_id, r.title, r.body, r.data, r.retry_count, r.scheduled_for,
			(r.attempt_id IS NULL OR pc.status IN ('scheduled', 'active')) AS attempt_open
		FROM reminders r
		LEFT JOIN player_challenges pc ON pc.id = r.attempt_id
		WHERE r.status = 'pending' AND r.scheduled_for <= $1
		ORDER BY r.scheduled_for
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var due []*notification.Reminder
	for rows.Next() {
		r := &notification.Reminder{Status: notification.ReminderPending}
		var data []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Body, &data, &r.RetryCount, &r.ScheduledFor, &r.AttemptOpen); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &r.Data); err != nil {
				s.logger.Warn(ctx, "reminder with unreadable data", "reminder_id", r.ID, "error", err)
			}
		}
		due = append(due, r)
	}
	return due, rows.Err()
}

// DispatchDue sends up to limit due reminders and returns how many were
// delivered. Failed sends are retried after notification.RetryDelay.
// Reminders whose attempt is already closed are cancelled unsent.
func (s *ReminderService) DispatchDue(ctx context.Context, limit int) (int, error) {
	due, err := s.dueReminders(ctx, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range due {
		if !r.AttemptOpen {
			s.markAsCancelled(ctx, r.ID)
			metrics.RemindersSent.WithLabelValues("cancelled").Inc()
			continue
		}
		if s.pushProvider == nil {
			s.markAsSent(ctx, r.ID)
			metrics.RemindersSent.WithLabelValues("skipped").Inc()
			continue
		}

		tokens, err := s.DeviceTokens(ctx, r.UserID)
		if err != nil {
			s.logger.Error(ctx, "failed to load device tokens", "user_id", r.UserID, "error", err)
			continue
		}
		if len(tokens) == 0 {
			s.markAsSent(ctx, r.ID)
			metrics.RemindersSent.WithLabelValues("skipped").Inc()
			continue
		}

		if err := s.pushProvider.SendPush(ctx, tokens, r.Title, r.Body, r.Data); err != nil {
			s.logger.Warn(ctx, "reminder push failed", "reminder_id", r.ID, "user_id", r.UserID, "error", err)
			s.markAsFailed(ctx, r.ID, err)
			metrics.RemindersSent.WithLabelValues("failed").Inc()
			continue
		}

		s.markAsSent(ctx, r.ID)
		metrics.RemindersSent.WithLabelValues("sent").Inc()
		sent++
	}

	if sent > 0 {
		s.logger.Info(ctx, "dispatched reminders", "count", sent)
	}
	return sent, nil
}

func (s *ReminderService) markAsSent(ctx context.Context, id uuid.UUID) {
	query := `UPDATE reminders SET status = 'sent', sent_at = $2 WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, id, s.now()); err != nil {
		s.logger.Error(ctx, "failed to mark reminder sent", "reminder_id", id, "error", err)
	}
}

func (s *ReminderService) markAsCancelled(ctx context.Context, id uuid.UUID) {
	query := `UPDATE reminders SET status = $2 WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, id, string(notification.ReminderCancelled)); err != nil {
		s.logger.Error(ctx, "failed to cancel reminder", "reminder_id", id, "error", err)
	}
}

// markAsFailed reschedules the reminder until it has been retried
// notification.MaxRetries times.
func (s *ReminderService) markAsFailed(ctx context.Context, id uuid.UUID, cause error) {
	now := s.now()
	query := `
		UPDATE reminders
		SET retry_count = retry_count + 1,
			failure_reason = $2,
			failed_at = $3,
			status = CASE WHEN retry_count + 1 <= $4 THEN 'pending' ELSE 'failed' END,
			scheduled_for = CASE WHEN retry_count + 1 <= $4 THEN $5 ELSE scheduled_for END
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query, id, cause.Error(), now, notification.MaxRetries, now.Add(notification.RetryDelay))
	if err != nil {
		s.logger.Error(ctx, "failed to mark reminder failed", "reminder_id", id, "error", err)
	}
}
