package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/generator"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/types/challenge"
	"zcoinsAPI/internal/workflow"
	"zcoinsAPI/middleware"
	"zcoinsAPI/utils"
)

const (
	maxProofBytes   = 8 << 20
	attemptsPerPage = 50
	maxDelayMinutes = 7 * 24 * 60
)

type ChallengeEngine interface {
	Start(ctx context.Context, userID, challengeID string, delay time.Duration, cb workflow.Callbacks) (*workflow.Workflow, error)
	Resume(ctx context.Context, userID string, attemptID uuid.UUID, cb workflow.Callbacks) (*workflow.Workflow, error)
}

type ChallengeRepository interface {
	ListDefinitions(ctx context.Context, userID string) ([]*challenge.Definition, error)
	ListAttempts(ctx context.Context, userID string, limit int) ([]*challenge.PlayerChallenge, error)
	GetAttempt(ctx context.Context, userID string, id uuid.UUID) (*challenge.PlayerChallenge, error)
}

type ChallengeGenerator interface {
	Generate(ctx context.Context, userID string, count int) []challenge.Definition
}

type ChallengeHandler struct {
	engine       ChallengeEngine
	repo         ChallengeRepository
	generator    ChallengeGenerator
	deepLinkBase string
	logger       logging.Logger
}

func NewChallengeHandler(engine ChallengeEngine, repo ChallengeRepository, gen ChallengeGenerator, deepLinkBase string, logger logging.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		engine:       engine,
		repo:         repo,
		generator:    gen,
		deepLinkBase: deepLinkBase,
		logger:       logger,
	}
}

// GET /api/v1/challenges
func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	defs, err := h.repo.ListDefinitions(ctx, clerkID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"challenges": defs})
}

// POST /api/v1/challenges/generate
func (h *ChallengeHandler) GenerateChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	req := challenge.GenerateChallengesRequest{Count: generator.BatchSize}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.Count != generator.Single && req.Count != generator.BatchSize {
		respondWithError(w, http.StatusBadRequest, "count must be 1 or 5")
		return
	}

	defs := h.generator.Generate(ctx, clerkID, req.Count)
	respondWithJSON(w, http.StatusOK, map[string]any{"challenges": defs})
}

// POST /api/v1/challenges/{id}/start
func (h *ChallengeHandler) StartChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.StartChallengeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.DelayMinutes < 0 || req.DelayMinutes > maxDelayMinutes {
		respondWithError(w, http.StatusBadRequest, "delay_minutes out of range")
		return
	}

	challengeID := mux.Vars(r)["id"]
	wf, err := h.engine.Start(ctx, clerkID, challengeID, time.Duration(req.DelayMinutes)*time.Minute, workflow.Callbacks{})
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, challenge.StartChallengeResponse{
		Attempt:  wf.Attempt(),
		State:    string(wf.State()),
		Balance:  wf.Balance(),
		Reminder: wf.State() == workflow.StateScheduled,
	})
}

// GET /api/v1/challenges/attempts
func (h *ChallengeHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	attempts, err := h.repo.ListAttempts(ctx, clerkID, attemptsPerPage)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

// POST /api/v1/challenges/attempts/{attemptID}/proof
func (h *ChallengeHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	attemptID, err := uuid.Parse(mux.Vars(r)["attemptID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attempt id")
		return
	}

	data, contentType, err := readProof(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "image exceeds 8MB")
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	wf, err := h.engine.Resume(ctx, clerkID, attemptID, workflow.Callbacks{
		OnSuccess: func(o workflow.Outcome) {
			h.logger.Info(ctx, "challenge completed", "user_id", clerkID, "attempt_id", o.AttemptID, "delta", o.Delta)
		},
		OnFailure: func(o workflow.Outcome) {
			h.logger.Info(ctx, "challenge failed", "user_id", clerkID, "attempt_id", o.AttemptID, "delta", o.Delta)
		},
	})
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	outcome, err := wf.SubmitProof(ctx, workflow.Proof{Data: data, ContentType: contentType})
	if err != nil {
		if errors.Is(err, common.ErrVerificationFailed) {
			resp := challenge.VerificationErrorResponse{
				Error:       err.Error(),
				Refunded:    true,
				State:       string(wf.State()),
				Retry:       challenge.RetryStart,
				ChallengeID: wf.Definition().ID,
			}
			if att := wf.Attempt(); att != nil {
				resp.Refunded = false
				resp.Retry = challenge.RetryUpload
				resp.AttemptID = att.ID.String()
			}
			respondWithJSON(w, http.StatusBadGateway, resp)
			return
		}
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	_ = wf.Dismiss()

	respondWithJSON(w, http.StatusOK, challenge.ProofResultResponse{
		AttemptID:  outcome.AttemptID.String(),
		Status:     outcome.Status,
		FeedbackAr: outcome.FeedbackAr,
		Delta:      outcome.Delta,
		Balance:    outcome.Balance,
		ProofURL:   outcome.ProofURL,
	})
}

// readProof pulls the "image" part out of a multipart body.
func readProof(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxProofBytes+1<<20)
	if err := r.ParseMultipartForm(maxProofBytes); err != nil {
		return nil, "", err
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", common.ErrProofRequired
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxProofBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxProofBytes {
		return nil, "", &http.MaxBytesError{Limit: maxProofBytes}
	}
	if len(data) == 0 {
		return nil, "", common.ErrProofRequired
	}
	return data, header.Header.Get("Content-Type"), nil
}

// GET /api/v1/challenges/attempts/{attemptID}/handoff
func (h *ChallengeHandler) ProofHandoff(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	attemptID, err := uuid.Parse(mux.Vars(r)["attemptID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attempt id")
		return
	}

	att, err := h.repo.GetAttempt(ctx, clerkID, attemptID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	if att.Status.Terminal() {
		respondWithError(w, http.StatusConflict, "attempt is already "+string(att.Status))
		return
	}

	link := utils.ProofDeepLink(h.deepLinkBase, att.ID)
	qr, err := utils.QRCodeBase64(link)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, challenge.HandoffResponse{
		AttemptID:    att.ID.String(),
		DeepLink:     link,
		QrCodeBase64: qr,
	})
}
