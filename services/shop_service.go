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
	"zcoinsAPI/internal/metrics"
	"zcoinsAPI/internal/store"
	"zcoinsAPI/internal/types/ledger"
)

type ShopService struct {
	db     db.Pool
	logger logging.Logger
	now    func() time.Time
}

func NewShopService(pool db.Pool, logger logging.Logger) *ShopService {
	return &ShopService{db: pool, logger: logger, now: time.Now}
}

// Catalog returns the active items grouped by item type.
func (s *ShopService) Catalog(ctx context.Context) (map[string][]*store.Item, error) {
	query := `
		SELECT id, name, name_ar, description, item_type, price, currency, image_url, is_active
		FROM shop_items
		WHERE is_active
		ORDER BY item_type, price, name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]*store.Item)
	for rows.Next() {
		var item store.Item
		var currency string
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.NameAr,
			&item.Description,
			&item.ItemType,
			&item.Price,
			&currency,
			&item.ImageURL,
			&item.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Currency = ledger.Currency(currency)
		items[item.ItemType] = append(items[item.ItemType], &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (s *ShopService) Inventory(ctx context.Context, userID string) ([]*store.InventoryItem, error) {
	query := `
		SELECT ui.id, ui.user_id, ui.item_id, ui.acquired_at,
			si.name, si.name_ar, si.description, si.item_type, si.price, si.currency, si.image_url, si.is_active
		FROM user_inventory ui
		JOIN shop_items si ON si.id = ui.item_id
		WHERE ui.user_id = $1
		ORDER BY ui.acquired_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	inventory := []*store.InventoryItem{}
	for rows.Next() {
		var entry store.InventoryItem
		var item store.Item
		var currency string
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ItemID,
			&entry.AcquiredAt,
			&item.Name,
			&item.NameAr,
			&item.Description,
			&item.ItemType,
			&item.Price,
			&currency,
			&item.ImageURL,
			&item.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.ID = entry.ItemID
		item.Currency = ledger.Currency(currency)
		entry.Item = &item
		inventory = append(inventory, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return inventory, nil
}

// Purchase buys itemID for userID. The inventory row is written before the
// balance is touched, so a duplicate purchase fails with
// common.ErrAlreadyOwned and costs nothing. It returns the purchase and the
// remaining balance in the item's currency.
func (s *ShopService) Purchase(ctx context.Context, userID, itemID string) (*store.Purchase, int, error) {
	itemUUID, err := uuid.Parse(itemID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid item id", common.ErrorNotFound)
	}

	var purchase *store.Purchase
	var balance int

	err = db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var item store.Item
		var currency string
		itemQuery := `
			SELECT id, price, currency, is_active
			FROM shop_items
			WHERE id = $1
		`
		err := tx.QueryRow(ctx, itemQuery, itemUUID).Scan(&item.ID, &item.Price, &currency, &item.IsActive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: shop item", common.ErrorNotFound)
			}
			return fmt.Errorf("db error: %w", err)
		}
		if !item.IsActive {
			return fmt.Errorf("%w: shop item is not available", common.ErrorNotFound)
		}
		item.Currency = ledger.Currency(currency)

		now := s.now()
		insertInventoryQuery := `
			INSERT INTO user_inventory (id, user_id, item_id, acquired_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.Exec(ctx, insertInventoryQuery, uuid.New(), userID, itemUUID, now); err != nil {
			if db.IsUniqueViolation(err) {
				return common.ErrAlreadyOwned
			}
			return fmt.Errorf("failed to add item to inventory: %w", err)
		}

		balance, err = NewLedgerService(tx, s.logger).Spend(ctx, userID, item.Currency, item.Price)
		if err != nil {
			return err
		}

		p := store.Purchase{
			ID:          uuid.New(),
			UserID:      userID,
			ItemID:      itemUUID,
			AmountPaid:  item.Price,
			Currency:    item.Currency,
			Status:      store.PurchaseCompleted,
			PurchasedAt: now,
		}
		insertPurchaseQuery := `
			INSERT INTO user_purchases (id, user_id, item_id, amount_paid, currency, status, purchased_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err = tx.Exec(ctx, insertPurchaseQuery,
			p.ID,
			p.UserID,
			p.ItemID,
			p.AmountPaid,
			string(p.Currency),
			p.Status,
			p.PurchasedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}

		purchase = &p
		return nil
	})

	switch {
	case err == nil:
		metrics.ShopPurchases.WithLabelValues("completed").Inc()
		s.logger.Info(ctx, "item purchased", "user_id", userID, "item_id", itemUUID, "price", purchase.AmountPaid, "currency", purchase.Currency)
		return purchase, balance, nil
	case errors.Is(err, common.ErrAlreadyOwned):
		metrics.ShopPurchases.WithLabelValues("already_owned").Inc()
	case errors.Is(err, common.ErrInsufficientFunds):
		metrics.ShopPurchases.WithLabelValues("insufficient_funds").Inc()
	default:
		metrics.ShopPurchases.WithLabelValues("error").Inc()
	}
	return nil, 0, err
}
