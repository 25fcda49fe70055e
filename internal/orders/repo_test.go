package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn := dbtest.Open(t).DB()
	for _, id := range []string{"cafe-1", "cafe-2"} {
		require.NoError(t, conn.Create(&models.Cafe{
			ID:        id,
			Name:      "Cafe " + id,
			Address:   "1 Main St",
			Latitude:  "40.7128",
			Longitude: "-74.0060",
			Rating:    4.5,
			IsActive:  true,
		}).Error)
	}
	return conn
}

func seedOrder(t *testing.T, repo Repository, id, cafeID string, status enums.OrderStatus, createdAt time.Time) {
	t.Helper()
	order := newTestOrder(t, status)
	order.ID = id
	order.CafeID = cafeID
	order.CreatedAt = createdAt
	require.NoError(t, repo.Create(context.Background(), toModel(order)))
}

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	note := "no sugar"
	order, err := CreateOrder(CreateOrderInput{
		ID:     "ord_roundtrip",
		CafeID: "cafe-1",
		Lines: []LineSnapshot{
			{ItemID: "latte", Name: "Latte", UnitPrice: 600, Quantity: 2, Options: []string{"Milk: Oat", "Size: Large"}},
			{ItemID: "croissant", Name: "Croissant", UnitPrice: 325, Quantity: 1},
		},
		TaxRate:             tenPercent(),
		PickupOffsetMinutes: 20,
		Note:                &note,
		Now:                 fixedNow,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, toModel(order)))

	row, err := repo.FindByID(ctx, "ord_roundtrip")
	require.NoError(t, err)
	got, err := fromModel(*row)
	require.NoError(t, err)

	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.Lines, got.Lines)
	assert.Equal(t, order.Subtotal, got.Subtotal)
	assert.Equal(t, order.Tax, got.Tax)
	assert.Equal(t, order.Total, got.Total)
	assert.True(t, order.TaxRate.Equal(got.TaxRate))
	assert.True(t, order.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, enums.OrderStatusNew, got.Status)
	require.NotNil(t, got.Note)
	assert.Equal(t, "no sugar", *got.Note)
}

func TestRepositoryCreateDuplicate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	seedOrder(t, repo, "ord_dup", "cafe-1", enums.OrderStatusNew, fixedNow)

	order := newTestOrder(t, enums.OrderStatusNew)
	order.ID = "ord_dup"
	err := repo.Create(context.Background(), toModel(order))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestRepositoryFindMissing(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	_, err := repo.FindByID(context.Background(), "ord_missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryListByCafeOrdersNewestFirst(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		seedOrder(t, repo, fmt.Sprintf("ord_%d", i), "cafe-1", enums.OrderStatusNew, fixedNow.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, repo, "ord_tie_a", "cafe-1", enums.OrderStatusReady, fixedNow.Add(10*time.Minute))
	seedOrder(t, repo, "ord_tie_b", "cafe-1", enums.OrderStatusReady, fixedNow.Add(10*time.Minute))
	seedOrder(t, repo, "ord_other", "cafe-2", enums.OrderStatusNew, fixedNow)

	rows, err := repo.List(ctx, ListQuery{CafeID: "cafe-1"})
	require.NoError(t, err)
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	assert.Equal(t, []string{"ord_tie_b", "ord_tie_a", "ord_3", "ord_2", "ord_1", "ord_0"}, ids)

	rows, err = repo.List(ctx, ListQuery{
		CafeID: "cafe-1",
		Cursor: &pagination.Cursor{CreatedAt: fixedNow.Add(10 * time.Minute), ID: "ord_tie_b"},
		Limit:  2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ord_tie_a", rows[0].ID)
	assert.Equal(t, "ord_3", rows[1].ID)

	rows, err = repo.List(ctx, ListQuery{CafeID: "cafe-1", Statuses: []enums.OrderStatus{enums.OrderStatusReady}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRepositoryUpdateStatusIsOptimistic(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	seedOrder(t, repo, "ord_1", "cafe-1", enums.OrderStatusNew, fixedNow)

	require.NoError(t, repo.UpdateStatus(ctx, "ord_1", enums.OrderStatusNew, enums.OrderStatusPreparing, fixedNow.Add(time.Minute)))

	err := repo.UpdateStatus(ctx, "ord_1", enums.OrderStatusNew, enums.OrderStatusCancelled, fixedNow.Add(2*time.Minute))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))

	row, err := repo.FindByID(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, row.Status)
}

func TestRepositoryWithTxRollsBack(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		order := newTestOrder(t, enums.OrderStatusNew)
		order.ID = "ord_tx"
		if err := repo.WithTx(tx).Create(context.Background(), toModel(order)); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	_, err = repo.FindByID(context.Background(), "ord_tx")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
