package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Source string

const (
	SourceStatic Source = "static"
	SourceAI     Source = "ai"
)

// Definition describes a task a player can pay to attempt. Immutable once stored.
type Definition struct {
	ID               string     `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	TitleAr          string     `json:"title_ar" db:"title_ar"`
	Description      string     `json:"description" db:"description"`
	DescriptionAr    string     `json:"description_ar" db:"description_ar"`
	Cost             int        `json:"cost" db:"cost"`
	Reward           int        `json:"reward" db:"reward"`
	FailurePenalty   int        `json:"failure_penalty" db:"failure_penalty"`
	Difficulty       Difficulty `json:"difficulty" db:"difficulty"`
	TimeLimitMinutes int        `json:"time_limit" db:"time_limit_minutes"`
	Icon             Icon       `json:"icon" db:"icon"`
	Source           Source     `json:"source" db:"source"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

func (d Definition) TimeLimit() time.Duration {
	return time.Duration(d.TimeLimitMinutes) * time.Minute
}

// PlayerChallenge is one (user, challenge, attempt) record.
type PlayerChallenge struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	ChallengeID   string     `json:"challenge_id" db:"challenge_id"`
	Status        Status     `json:"status" db:"status"`
	ScheduledAt   time.Time  `json:"scheduled_at" db:"scheduled_at"`
	DeadlineAt    time.Time  `json:"deadline_at" db:"deadline_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	FailedAt      *time.Time `json:"failed_at,omitempty" db:"failed_at"`
	ProofURL      *string    `json:"proof_url,omitempty" db:"proof_url"`
	AIFeedback    *string    `json:"ai_feedback,omitempty" db:"ai_feedback"`
	RewardClaimed bool       `json:"reward_claimed" db:"reward_claimed"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
