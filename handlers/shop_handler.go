package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/store"
	"zcoinsAPI/internal/types/ledger"
	"zcoinsAPI/middleware"
)

type Shop interface {
	Catalog(ctx context.Context) (map[string][]*store.Item, error)
	Inventory(ctx context.Context, userID string) ([]*store.InventoryItem, error)
	Purchase(ctx context.Context, userID, itemID string) (*store.Purchase, int, error)
}

type BalanceReader interface {
	Balance(ctx context.Context, userID string) (ledger.Balance, error)
}

// balanceOrZero treats a user without a ledger row as holding nothing.
func balanceOrZero(ctx context.Context, wallet BalanceReader, userID string) (ledger.Balance, error) {
	bal, err := wallet.Balance(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return ledger.Balance{UserID: userID}, nil
	}
	return bal, err
}

type ShopHandler struct {
	shop   Shop
	wallet BalanceReader
	logger logging.Logger
}

func NewShopHandler(shop Shop, wallet BalanceReader, logger logging.Logger) *ShopHandler {
	return &ShopHandler{shop: shop, wallet: wallet, logger: logger}
}

// GET /api/v1/shop
func (h *ShopHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	items, err := h.shop.Catalog(ctx)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	bal, err := balanceOrZero(ctx, h.wallet, clerkID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, store.StoreResponse{Items: items, Zcoins: bal.Zcoins, Zgold: bal.Zgold})
}

// GET /api/v1/shop/inventory
func (h *ShopHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	inventory, err := h.shop.Inventory(ctx, clerkID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"inventory": inventory})
}

// POST /api/v1/shop/purchase
func (h *ShopHandler) PurchaseItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req store.PurchaseItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	purchase, balance, err := h.shop.Purchase(ctx, clerkID, req.ItemID)
	if errors.Is(err, common.ErrAlreadyOwned) {
		respondWithJSON(w, http.StatusOK, store.PurchaseResponse{AlreadyOwned: true})
		return
	}
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, store.PurchaseResponse{
		Purchase: purchase,
		Balance:  balance,
		Currency: string(purchase.Currency),
	})
}
