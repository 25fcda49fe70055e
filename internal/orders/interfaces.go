package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	"github.com/angelmondragon/cafehop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to enums.OrderStatus, at time.Time) error
}

// ListQuery scopes an order listing, newest first. Empty CafeID or SessionID
// leaves that column unfiltered.
type ListQuery struct {
	CafeID    string
	SessionID string
	Statuses  []enums.OrderStatus
	Cursor    *pagination.Cursor
	Limit     int
}
