package notification

import (
	"time"

	"github.com/google/uuid"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
	// ReminderCancelled is set when the attempt was closed before the
	// reminder went out.
	ReminderCancelled ReminderStatus = "cancelled"
)

// MaxRetries is how many times a failed push is rescheduled before the
// reminder stays failed.
const (
	MaxRetries = 3
	RetryDelay = 5 * time.Minute
)

// Reminder is a push notification queued for a scheduled challenge attempt.
type Reminder struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	UserID        string         `json:"user_id" db:"user_id"`
	AttemptID     *uuid.UUID     `json:"attempt_id,omitempty" db:"attempt_id"`
	Title         string         `json:"title" db:"title"`
	Body          string         `json:"body" db:"body"`
	Data          map[string]any `json:"data" db:"data"`
	Status        ReminderStatus `json:"status" db:"status"`
	ScheduledFor  time.Time      `json:"scheduled_for" db:"scheduled_for"`
	SentAt        *time.Time     `json:"sent_at,omitempty" db:"sent_at"`
	FailedAt      *time.Time     `json:"failed_at,omitempty" db:"failed_at"`
	FailureReason *string        `json:"failure_reason,omitempty" db:"failure_reason"`
	RetryCount    int            `json:"retry_count" db:"retry_count"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`

	// AttemptOpen is false once the linked attempt is resolved or removed.
	AttemptOpen bool `json:"-" db:"attempt_open"`
}

type DeviceToken struct {
	UserID   string `json:"user_id" db:"user_id"`
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"` // ios, android, web
}
