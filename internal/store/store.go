package store

import (
	"time"

	"github.com/google/uuid"

	"zcoinsAPI/internal/types/ledger"
)

type Item struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	NameAr      string          `json:"name_ar" db:"name_ar"`
	Description string          `json:"description" db:"description"`
	ItemType    string          `json:"item_type" db:"item_type"`
	Price       int             `json:"price" db:"price"`
	Currency    ledger.Currency `json:"currency" db:"currency"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	IsActive    bool            `json:"is_active" db:"is_active"`
}

// InventoryItem records that a user owns an item. One row per (user, item).
type InventoryItem struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	ItemID     uuid.UUID `json:"item_id" db:"item_id"`
	AcquiredAt time.Time `json:"acquired_at" db:"acquired_at"`
	Item       *Item     `json:"item,omitempty"`
}

type Purchase struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	ItemID      uuid.UUID       `json:"item_id" db:"item_id"`
	AmountPaid  int             `json:"amount_paid" db:"amount_paid"`
	Currency    ledger.Currency `json:"currency" db:"currency"`
	Status      string          `json:"status" db:"status"`
	PurchasedAt time.Time       `json:"purchased_at" db:"purchased_at"`
}

const PurchaseCompleted = "completed"

type PurchaseItemRequest struct {
	ItemID string `json:"item_id"`
}

type PurchaseResponse struct {
	Purchase     *Purchase `json:"purchase,omitempty"`
	AlreadyOwned bool      `json:"already_owned"`
	Balance      int       `json:"balance"`
	Currency     string    `json:"currency"`
}

type StoreResponse struct {
	Items  map[string][]*Item `json:"items"`
	Zcoins int                `json:"zcoins"`
	Zgold  int                `json:"zgold"`
}
