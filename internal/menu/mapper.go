package menu

import (
	"github.com/angelmondragon/cafehop-backend/internal/cart"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
)

func toCartItem(row models.MenuItem) cart.MenuItem {
	item := cart.MenuItem{
		ID:        row.ID,
		CafeID:    row.CafeID,
		Name:      row.Name,
		Category:  row.Category,
		BasePrice: money.Cents(row.BasePriceCents),
		Available: row.IsAvailable,
	}
	for _, group := range row.Customizations {
		custom := cart.Customization{
			ID:            group.ID,
			Name:          group.Name,
			MaxSelections: group.MaxSelections,
			Options:       make([]cart.Option, 0, len(group.Options)),
		}
		for _, opt := range group.Options {
			custom.Options = append(custom.Options, cart.Option{Name: opt.Name, PriceDelta: money.Cents(opt.PriceDeltaCents)})
		}
		item.Customizations = append(item.Customizations, custom)
	}
	return item
}

func toModel(item cart.MenuItem) *models.MenuItem {
	row := &models.MenuItem{
		ID:             item.ID,
		CafeID:         item.CafeID,
		Name:           item.Name,
		Category:       item.Category,
		BasePriceCents: int64(item.BasePrice),
		IsAvailable:    item.Available,
		Customizations: make([]models.MenuCustomization, 0, len(item.Customizations)),
	}
	for _, group := range item.Customizations {
		custom := models.MenuCustomization{
			ID:            group.ID,
			Name:          group.Name,
			MaxSelections: group.MaxSelections,
			Options:       make([]models.MenuOption, 0, len(group.Options)),
		}
		for _, opt := range group.Options {
			custom.Options = append(custom.Options, models.MenuOption{Name: opt.Name, PriceDeltaCents: int64(opt.PriceDelta)})
		}
		row.Customizations = append(row.Customizations, custom)
	}
	return row
}
