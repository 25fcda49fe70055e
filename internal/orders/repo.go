package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/cafehop-backend/internal/repo"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"gorm.io/gorm"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// Create inserts the order and its lines in one transaction.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithDetails(map[string]any{"order_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	return &order, nil
}

// List returns up to query.Limit orders, newest first, strictly after the cursor.
func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Order, error) {
	q := r.DB(ctx).
		Model(&models.Order{}).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })

	if query.CafeID != "" {
		q = q.Where("cafe_id = ?", query.CafeID)
	}
	if query.SessionID != "" {
		q = q.Where("session_id = ?", query.SessionID)
	}

	if len(query.Statuses) > 0 {
		q = q.Where("status IN ?", query.Statuses)
	}
	if query.Cursor != nil {
		at := query.Cursor.CreatedAt.UTC()
		q = q.Where("((created_at < ?) OR (created_at = ? AND id < ?))", at, at, query.Cursor.ID)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	var rows []models.Order
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// UpdateStatus moves the order from -> to only if it is still in from, so two
// concurrent writers cannot both succeed.
func (r *repository) UpdateStatus(ctx context.Context, id string, from, to enums.OrderStatus, at time.Time) error {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": at.UTC()})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").WithDetails(map[string]any{
			"order_id": id,
			"expected": from.String(),
		})
	}
	return nil
}
