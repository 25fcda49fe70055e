package menu

import (
	"context"
	"time"

	"github.com/angelmondragon/cafehop-backend/internal/repo"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles menu item persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to menu operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListByCafe returns every item on a café's menu, available or not.
func (r *Repository) ListByCafe(ctx context.Context, cafeID string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.DB(ctx).
		Where("cafe_id = ?", cafeID).
		Order("category ASC").
		Order("name ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	return items, nil
}

// FindByID loads a single menu item.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").WithDetails(map[string]any{"item_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find menu item")
	}
	return &item, nil
}

// CafeExists reports whether the café row is present.
func (r *Repository) CafeExists(ctx context.Context, cafeID string) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Cafe{}).Where("id = ?", cafeID).Count(&count).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cafe")
	}
	return count > 0, nil
}

// Upsert inserts the item or replaces its mutable columns.
func (r *Repository) Upsert(ctx context.Context, item *models.MenuItem) error {
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "menu item is required")
	}
	err := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "category", "base_price_cents", "is_available", "customizations", "updated_at",
			}),
		}).
		Create(item).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert menu item")
	}
	return nil
}

// SetAvailability flips the availability flag of one café's item.
func (r *Repository) SetAvailability(ctx context.Context, cafeID, itemID string, available bool, at time.Time) error {
	res := r.DB(ctx).
		Model(&models.MenuItem{}).
		Where("id = ? AND cafe_id = ?", itemID, cafeID).
		Updates(map[string]any{"is_available": available, "updated_at": at.UTC()})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update menu item availability")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").WithDetails(map[string]any{
			"cafe_id": cafeID,
			"item_id": itemID,
		})
	}
	return nil
}
