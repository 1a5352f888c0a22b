package handlers

import (
	"context"
	"net/http"
	"time"

	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/types/reward"
	"zcoinsAPI/middleware"
)

type DailyRewards interface {
	Status(ctx context.Context, userID string) (*reward.Status, error)
	Claim(ctx context.Context, userID string) (*reward.Claim, error)
}

type DailyRewardHandler struct {
	rewards DailyRewards
	logger  logging.Logger
}

func NewDailyRewardHandler(rewards DailyRewards, logger logging.Logger) *DailyRewardHandler {
	return &DailyRewardHandler{rewards: rewards, logger: logger}
}

// GET /api/v1/daily-reward
func (h *DailyRewardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	status, err := h.rewards.Status(ctx, clerkID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// POST /api/v1/daily-reward/claim
func (h *DailyRewardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	claim, err := h.rewards.Claim(ctx, clerkID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, claim)
}
