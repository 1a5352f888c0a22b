package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/store"
	"zcoinsAPI/internal/types/ledger"
)

var nightSky = uuid.MustParse("6f1c2a0e-4b7d-4c1a-9b53-1f0d7e2a8c01")

func newShop(t *testing.T) (*ShopService, pgxmock.PgxPoolIface) {
	mock := newMock(t)
	svc := NewShopService(mock, nop)
	fixed := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc, mock
}

func expectItem(mock pgxmock.PgxPoolIface, price int, currency string, active bool) {
	mock.ExpectQuery(q("FROM shop_items")).
		WithArgs(nightSky).
		WillReturnRows(pgxmock.NewRows([]string{"id", "price", "currency", "is_active"}).
			AddRow(nightSky, price, currency, active))
}

func TestPurchase(t *testing.T) {
	svc, mock := newShop(t)

	mock.ExpectBegin()
	expectItem(mock, 30, "zcoins", true)
	mock.ExpectExec(q("INSERT INTO user_inventory")).
		WithArgs(pgxmock.AnyArg(), "user_1", nightSky, svc.now()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(q("SET zcoins = zcoins - $2")).
		WithArgs("user_1", 30).
		WillReturnRows(pgxmock.NewRows([]string{"zcoins"}).AddRow(12))
	mock.ExpectExec(q("INSERT INTO user_purchases")).
		WithArgs(pgxmock.AnyArg(), "user_1", nightSky, 30, "zcoins", store.PurchaseCompleted, svc.now()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	p, bal, err := svc.Purchase(context.Background(), "user_1", nightSky.String())
	require.NoError(t, err)
	assert.Equal(t, 12, bal)
	assert.Equal(t, 30, p.AmountPaid)
	assert.Equal(t, ledger.Zcoins, p.Currency)
}

func TestPurchase_AlreadyOwnedLeavesBalance(t *testing.T) {
	svc, mock := newShop(t)

	mock.ExpectBegin()
	expectItem(mock, 30, "zcoins", true)
	mock.ExpectExec(q("INSERT INTO user_inventory")).
		WithArgs(pgxmock.AnyArg(), "user_1", nightSky, pgxmock.AnyArg()).
		WillReturnError(errUnique)
	mock.ExpectRollback()

	_, _, err := svc.Purchase(context.Background(), "user_1", nightSky.String())
	assert.ErrorIs(t, err, common.ErrAlreadyOwned)
}

func TestPurchase_InsufficientFundsRollsBackInventory(t *testing.T) {
	svc, mock := newShop(t)

	mock.ExpectBegin()
	expectItem(mock, 3, "zgold", true)
	mock.ExpectExec(q("INSERT INTO user_inventory")).
		WithArgs(pgxmock.AnyArg(), "user_1", nightSky, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(q("SET zgold = zgold - $2")).
		WithArgs("user_1", 3).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := svc.Purchase(context.Background(), "user_1", nightSky.String())
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
}

func TestPurchase_UnknownOrInactiveItem(t *testing.T) {
	t.Run("bad id", func(t *testing.T) {
		svc, _ := newShop(t)
		_, _, err := svc.Purchase(context.Background(), "user_1", "not-a-uuid")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		svc, mock := newShop(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("FROM shop_items")).WithArgs(nightSky).WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := svc.Purchase(context.Background(), "user_1", nightSky.String())
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("inactive", func(t *testing.T) {
		svc, mock := newShop(t)
		mock.ExpectBegin()
		expectItem(mock, 30, "zcoins", false)
		mock.ExpectRollback()

		_, _, err := svc.Purchase(context.Background(), "user_1", nightSky.String())
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestCatalog_GroupsByType(t *testing.T) {
	svc, mock := newShop(t)
	cols := []string{"id", "name", "name_ar", "description", "item_type", "price", "currency", "image_url", "is_active"}

	mock.ExpectQuery(q("FROM shop_items")).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), "Golden Frame", "", "", "frame", 3, "zgold", "", true).
			AddRow(uuid.New(), "Night Sky Theme", "", "", "theme", 30, "zcoins", "", true).
			AddRow(uuid.New(), "Desert Dunes Theme", "", "", "theme", 45, "zcoins", "", true))

	items, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, items["theme"], 2)
	require.Len(t, items["frame"], 1)
	assert.Equal(t, ledger.Zgold, items["frame"][0].Currency)
}

func TestInventory(t *testing.T) {
	svc, mock := newShop(t)
	cols := []string{"id", "user_id", "item_id", "acquired_at", "name", "name_ar", "description",
		"item_type", "price", "currency", "image_url", "is_active"}

	mock.ExpectQuery(q("FROM user_inventory ui")).
		WithArgs("user_1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), "user_1", nightSky, svc.now(), "Night Sky Theme", "", "", "theme", 30, "zcoins", "", true))

	inv, err := svc.Inventory(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, nightSky, inv[0].Item.ID)
	assert.Equal(t, "Night Sky Theme", inv[0].Item.Name)
}
