package reviews

import (
	"context"
	"time"

	"github.com/angelmondragon/cafehop-backend/internal/repo"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository handles review persistence and keeps cafes.rating in step with
// the reviews it aggregates.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to review operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// RatingCount is how many reviews gave one star value.
type RatingCount struct {
	Rating int
	Count  int
}

// Create inserts the review and stores the café's new average rating, rounded
// to one decimal, in the same transaction. It returns that average.
func (r *Repository) Create(ctx context.Context, review *models.Review) (float64, error) {
	var average float64
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := requireCafe(tx, review.CafeID); err != nil {
			return err
		}
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		var raw float64
		if err := tx.Model(&models.Review{}).
			Where("cafe_id = ?", review.CafeID).
			Select("COALESCE(AVG(rating), 0)").
			Scan(&raw).Error; err != nil {
			return err
		}
		average = roundRating(raw)
		return tx.Model(&models.Cafe{}).Where("id = ?", review.CafeID).Update("rating", average).Error
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return 0, typed
		}
		if db.IsUniqueViolation(err, "") {
			return 0, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "review already exists")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return average, nil
}

// FindByID loads one review of the café.
func (r *Repository) FindByID(ctx context.Context, cafeID, id string) (*models.Review, error) {
	var review models.Review
	if err := r.DB(ctx).Where("id = ? AND cafe_id = ?", id, cafeID).First(&review).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found").WithDetails(map[string]any{"review_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find review")
	}
	return &review, nil
}

// ListByCafe returns the café's reviews newest first. A zero rating lists
// every star value.
func (r *Repository) ListByCafe(ctx context.Context, cafeID string, rating int) ([]models.Review, error) {
	q := r.DB(ctx).Where("cafe_id = ?", cafeID)
	if rating > 0 {
		q = q.Where("rating = ?", rating)
	}
	var rows []models.Review
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return rows, nil
}

// CountByRating groups the café's reviews by star value.
func (r *Repository) CountByRating(ctx context.Context, cafeID string) ([]RatingCount, error) {
	var rows []RatingCount
	if err := r.DB(ctx).
		Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("cafe_id = ?", cafeID).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count reviews")
	}
	return rows, nil
}

// SaveReply attaches the café's answer only while the review has none, so two
// staff members replying at once cannot overwrite each other.
func (r *Repository) SaveReply(ctx context.Context, cafeID, id, text string, at time.Time) error {
	res := r.DB(ctx).
		Model(&models.Review{}).
		Where("id = ? AND cafe_id = ? AND reply_text IS NULL", id, cafeID).
		Updates(map[string]any{"reply_text": text, "replied_at": at.UTC()})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "save review reply")
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, cafeID, id); err != nil {
			return err
		}
		return alreadyRepliedError(id)
	}
	return nil
}

// EnsureCafe reports NOT_FOUND for an unknown café.
func (r *Repository) EnsureCafe(ctx context.Context, cafeID string) error {
	err := requireCafe(r.DB(ctx), cafeID)
	if err != nil && pkgerrors.As(err) == nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cafe")
	}
	return err
}

func requireCafe(tx *gorm.DB, cafeID string) error {
	var count int64
	if err := tx.Model(&models.Cafe{}).Where("id = ?", cafeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cafe not found").WithDetails(map[string]any{"cafe_id": cafeID})
	}
	return nil
}

func alreadyRepliedError(id string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConflict, "review already has a reply").WithDetails(map[string]any{"review_id": id})
}
