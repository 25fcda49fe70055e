package menu

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/cafehop-backend/internal/cart"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
)

type menuRepository interface {
	ListByCafe(ctx context.Context, cafeID string) ([]models.MenuItem, error)
	FindByID(ctx context.Context, id string) (*models.MenuItem, error)
	CafeExists(ctx context.Context, cafeID string) (bool, error)
	Upsert(ctx context.Context, item *models.MenuItem) error
	SetAvailability(ctx context.Context, cafeID, itemID string, available bool, at time.Time) error
}

// Service exposes a café's menu to shoppers and staff. It satisfies
// cart.CatalogLoader.
type Service interface {
	Catalog(ctx context.Context, cafeID string) (cart.Catalog, error)
	List(ctx context.Context, cafeID string) ([]cart.MenuItem, error)
	UpsertItem(ctx context.Context, item cart.MenuItem) (cart.MenuItem, error)
	SetAvailability(ctx context.Context, cafeID, itemID string, available bool) (cart.MenuItem, error)
}

type service struct {
	repo menuRepository
	now  func() time.Time
	logg *logger.Logger
}

// NewService builds the menu service.
func NewService(repo menuRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "menu repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, now: time.Now, logg: logg}, nil
}

func (s *service) Catalog(ctx context.Context, cafeID string) (cart.Catalog, error) {
	items, err := s.List(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	return cart.NewCatalog(items...), nil
}

func (s *service) List(ctx context.Context, cafeID string) ([]cart.MenuItem, error) {
	if strings.TrimSpace(cafeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	rows, err := s.repo.ListByCafe(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	items := make([]cart.MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toCartItem(row))
	}
	return items, nil
}

func (s *service) UpsertItem(ctx context.Context, item cart.MenuItem) (cart.MenuItem, error) {
	item, err := normalizeItem(item)
	if err != nil {
		return cart.MenuItem{}, err
	}

	exists, err := s.repo.CafeExists(ctx, item.CafeID)
	if err != nil {
		return cart.MenuItem{}, err
	}
	if !exists {
		return cart.MenuItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "cafe not found").WithDetails(map[string]any{"cafe_id": item.CafeID})
	}

	existing, err := s.repo.FindByID(ctx, item.ID)
	switch {
	case err == nil && existing.CafeID != item.CafeID:
		return cart.MenuItem{}, pkgerrors.New(pkgerrors.CodeConflict, "menu item belongs to another cafe")
	case err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
		return cart.MenuItem{}, err
	}

	row := toModel(item)
	row.UpdatedAt = s.now().UTC()
	if err := s.repo.Upsert(ctx, row); err != nil {
		return cart.MenuItem{}, err
	}

	ctx = s.logg.WithCafeID(ctx, item.CafeID)
	s.logg.Info(s.logg.WithField(ctx, "item_id", item.ID), "menu item saved")
	return item, nil
}

func (s *service) SetAvailability(ctx context.Context, cafeID, itemID string, available bool) (cart.MenuItem, error) {
	if strings.TrimSpace(cafeID) == "" || strings.TrimSpace(itemID) == "" {
		return cart.MenuItem{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id and item id are required")
	}
	if err := s.repo.SetAvailability(ctx, cafeID, itemID, available, s.now()); err != nil {
		return cart.MenuItem{}, err
	}
	row, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return cart.MenuItem{}, err
	}
	return toCartItem(*row), nil
}

// normalizeItem trims names and enforces the single-select customization
// model. A zero MaxSelections is read as one.
func normalizeItem(item cart.MenuItem) (cart.MenuItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	item.CafeID = strings.TrimSpace(item.CafeID)
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)

	if item.ID == "" || item.CafeID == "" {
		return item, pkgerrors.New(pkgerrors.CodeValidation, "item id and cafe id are required")
	}
	if item.Name == "" {
		return item, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if item.BasePrice.IsNegative() {
		return item, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	groups := make([]cart.Customization, 0, len(item.Customizations))
	seenGroups := map[string]struct{}{}
	for _, group := range item.Customizations {
		group.ID = strings.TrimSpace(group.ID)
		group.Name = strings.TrimSpace(group.Name)
		if group.ID == "" {
			return item, pkgerrors.New(pkgerrors.CodeValidation, "customization id is required")
		}
		if _, dup := seenGroups[group.ID]; dup {
			return item, pkgerrors.New(pkgerrors.CodeValidation, "duplicate customization id").WithDetails(map[string]any{"customization_id": group.ID})
		}
		seenGroups[group.ID] = struct{}{}
		if group.MaxSelections == 0 {
			group.MaxSelections = 1
		}
		if group.MaxSelections != 1 {
			return item, pkgerrors.New(pkgerrors.CodeValidation, "only single-select customizations are supported").WithDetails(map[string]any{
				"customization_id": group.ID,
				"max_selections":   group.MaxSelections,
			})
		}
		if len(group.Options) == 0 {
			return item, pkgerrors.New(pkgerrors.CodeValidation, "customization needs at least one option").WithDetails(map[string]any{"customization_id": group.ID})
		}
		options := make([]cart.Option, 0, len(group.Options))
		seenOptions := map[string]struct{}{}
		for _, opt := range group.Options {
			opt.Name = strings.TrimSpace(opt.Name)
			if opt.Name == "" {
				return item, pkgerrors.New(pkgerrors.CodeValidation, "option name is required").WithDetails(map[string]any{"customization_id": group.ID})
			}
			if _, dup := seenOptions[opt.Name]; dup {
				return item, pkgerrors.New(pkgerrors.CodeValidation, "duplicate option name").WithDetails(map[string]any{
					"customization_id": group.ID,
					"option":           opt.Name,
				})
			}
			seenOptions[opt.Name] = struct{}{}
			options = append(options, opt)
		}
		group.Options = options
		groups = append(groups, group)
	}
	item.Customizations = groups
	if len(groups) == 0 {
		item.Customizations = nil
	}
	return item, nil
}
