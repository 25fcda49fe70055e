package cafes

import (
	"context"

	"github.com/angelmondragon/cafehop-backend/internal/repo"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository handles café persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to café operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListActive returns every active café with its weekly hours.
func (r *Repository) ListActive(ctx context.Context) ([]models.Cafe, error) {
	var cafes []models.Cafe
	if err := r.DB(ctx).
		Preload("Hours", func(tx *gorm.DB) *gorm.DB { return tx.Order("weekday ASC") }).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&cafes).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active cafes")
	}
	return cafes, nil
}

// FindByID loads a café with its weekly hours.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Cafe, error) {
	var cafe models.Cafe
	if err := r.DB(ctx).
		Preload("Hours", func(tx *gorm.DB) *gorm.DB { return tx.Order("weekday ASC") }).
		Where("id = ?", id).
		First(&cafe).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cafe not found").WithDetails(map[string]any{"cafe_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cafe")
	}
	return &cafe, nil
}

// Create inserts a café and any hours it carries.
func (r *Repository) Create(ctx context.Context, cafe *models.Cafe) error {
	if err := r.DB(ctx).Create(cafe).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cafe already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cafe")
	}
	return nil
}

// ReplaceHours swaps a café's weekly schedule in one transaction.
func (r *Repository) ReplaceHours(ctx context.Context, cafeID string, hours []models.CafeHours) error {
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("cafe_id = ?", cafeID).Delete(&models.CafeHours{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		return tx.Create(&hours).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cafe hours")
	}
	return nil
}
