package handlers

import (
	"context"
	"net/http"
	"time"

	"zcoinsAPI/internal/logging"
	"zcoinsAPI/middleware"
)

type WalletHandler struct {
	wallet BalanceReader
	logger logging.Logger
}

func NewWalletHandler(wallet BalanceReader, logger logging.Logger) *WalletHandler {
	return &WalletHandler{wallet: wallet, logger: logger}
}

// GET /api/v1/wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	bal, err := balanceOrZero(ctx, h.wallet, clerkID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, bal)
}
