package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/logging"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, common.ErrAttemptInProgress),
		errors.Is(err, common.ErrInvalidTransition),
		errors.Is(err, common.ErrAlreadyOwned):
		return http.StatusConflict
	case errors.Is(err, common.ErrProofRequired):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrVerificationFailed),
		errors.Is(err, common.ErrOracleUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrCooldownActive):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondWithDomainError writes err with its mapped status. Unmapped errors
// are logged and hidden from the client.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondWithError(w, code, "Internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}
