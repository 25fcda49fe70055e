package cart

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
)

// CatalogLoader resolves the live menu for a café.
type CatalogLoader interface {
	Catalog(ctx context.Context, cafeID string) (Catalog, error)
}

// Service exposes session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID, cafeID string) (*View, error)
	Add(ctx context.Context, sessionID, cafeID, itemID string, selection Selection) (*View, error)
	Remove(ctx context.Context, sessionID, cafeID, itemID string, selection Selection) (*View, error)
	Clear(ctx context.Context, sessionID, cafeID string) error
}

// LineView is a priced cart line.
type LineView struct {
	ItemID    string      `json:"item_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	Selection Selection   `json:"selection,omitempty"`
	UnitPrice money.Cents `json:"unit_price"`
	LineTotal money.Cents `json:"line_total"`
}

// View is the priced cart returned to clients.
type View struct {
	CafeID    string      `json:"cafe_id"`
	Lines     []LineView  `json:"lines"`
	ItemCount int         `json:"item_count"`
	Total     money.Cents `json:"total"`
}

type service struct {
	store   Store
	catalog CatalogLoader
	logg    *logger.Logger
}

// NewService builds a cart service over a cart store and the menu catalog.
func NewService(store Store, catalog CatalogLoader, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: store, catalog: catalog, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, sessionID, cafeID string) (*View, error) {
	if err := validateKeys(sessionID, cafeID); err != nil {
		return nil, err
	}
	c, catalog, err := s.load(ctx, sessionID, cafeID)
	if err != nil {
		return nil, err
	}
	if _, changed := prune(c, catalog); changed {
		s.logg.Warn(s.logg.WithCafeID(ctx, cafeID), "dropping cart lines no longer on the menu")
		c, err = s.store.Update(ctx, sessionID, cafeID, func(current Cart) (Cart, error) {
			pruned, _ := prune(current, catalog)
			return pruned, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return BuildView(c, catalog)
}

// Add prunes lines the menu no longer offers before merging the new item, so
// the stored cart always prices cleanly. A rejected item leaves the cart as is.
func (s *service) Add(ctx context.Context, sessionID, cafeID, itemID string, selection Selection) (*View, error) {
	if err := validateKeys(sessionID, cafeID); err != nil {
		return nil, err
	}
	catalog, err := s.catalog.Catalog(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	item, ok := catalog.Lookup(itemID)
	if !ok {
		return nil, missingItemError(itemID)
	}
	next, err := s.store.Update(ctx, sessionID, cafeID, func(current Cart) (Cart, error) {
		pruned, _ := prune(current, catalog)
		return AddItem(pruned, item, selection)
	})
	if err != nil {
		return nil, err
	}
	return BuildView(next, catalog)
}

func (s *service) Remove(ctx context.Context, sessionID, cafeID, itemID string, selection Selection) (*View, error) {
	if err := validateKeys(sessionID, cafeID); err != nil {
		return nil, err
	}
	catalog, err := s.catalog.Catalog(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	next, err := s.store.Update(ctx, sessionID, cafeID, func(current Cart) (Cart, error) {
		pruned, _ := prune(current, catalog)
		return RemoveItem(pruned, itemID, selection), nil
	})
	if err != nil {
		return nil, err
	}
	return BuildView(next, catalog)
}

func (s *service) Clear(ctx context.Context, sessionID, cafeID string) error {
	if err := validateKeys(sessionID, cafeID); err != nil {
		return err
	}
	return s.store.Clear(ctx, sessionID, cafeID)
}

func (s *service) load(ctx context.Context, sessionID, cafeID string) (Cart, Catalog, error) {
	catalog, err := s.catalog.Catalog(ctx, cafeID)
	if err != nil {
		return Cart{}, nil, err
	}
	c, err := s.store.Load(ctx, sessionID, cafeID)
	if err != nil {
		return Cart{}, nil, err
	}
	return c, catalog, nil
}

// BuildView prices every line against the catalog.
func BuildView(c Cart, catalog Catalog) (*View, error) {
	view := &View{CafeID: c.CafeID, Lines: make([]LineView, 0, len(c.Lines))}
	for _, line := range c.Lines {
		item, ok := catalog.Lookup(line.ItemID)
		if !ok {
			return nil, missingItemError(line.ItemID)
		}
		total, err := LineTotal(line, catalog)
		if err != nil {
			return nil, err
		}
		unit, _, err := unitPrice(item, line.Selection)
		if err != nil {
			return nil, err
		}
		view.Lines = append(view.Lines, LineView{
			ItemID:    line.ItemID,
			Name:      item.Name,
			Quantity:  line.Quantity,
			Selection: line.Selection,
			UnitPrice: unit,
			LineTotal: total,
		})
		view.Total = view.Total.Add(total)
	}
	view.ItemCount = ItemCount(c)
	return view, nil
}

// prune drops lines whose item or options vanished from the menu.
func prune(c Cart, catalog Catalog) (Cart, bool) {
	kept := make([]Line, 0, len(c.Lines))
	for _, line := range c.Lines {
		if _, err := LineTotal(line, catalog); err != nil {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == len(c.Lines) {
		return c, false
	}
	return Cart{CafeID: c.CafeID, Lines: kept}, true
}

func validateKeys(sessionID, cafeID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if strings.TrimSpace(cafeID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	return nil
}
