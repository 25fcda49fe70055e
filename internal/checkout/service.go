package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/cafehop-backend/internal/cart"
	"github.com/angelmondragon/cafehop-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
)

type cartStore interface {
	Load(ctx context.Context, sessionID, cafeID string) (cart.Cart, error)
	Clear(ctx context.Context, sessionID, cafeID string) error
}

type orderPlacer interface {
	Place(ctx context.Context, input orders.PlaceInput) (orders.Order, error)
}

// Service turns a session cart into a placed order.
type Service interface {
	Execute(ctx context.Context, input Input) (orders.Order, error)
}

// Input identifies the cart to check out plus the pickup details. A nil
// PickupOffsetMinutes uses the configured default.
type Input struct {
	SessionID           string
	CafeID              string
	PickupOffsetMinutes *int
	Note                *string
}

type service struct {
	carts         cartStore
	catalog       cart.CatalogLoader
	orders        orderPlacer
	defaultPickup int
	logg          *logger.Logger
}

// NewService builds the checkout service.
func NewService(carts cartStore, catalog cart.CatalogLoader, placer orderPlacer, defaultPickupMinutes int, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if defaultPickupMinutes < 0 {
		return nil, fmt.Errorf("default pickup minutes must be non-negative")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		carts:         carts,
		catalog:       catalog,
		orders:        placer,
		defaultPickup: defaultPickupMinutes,
		logg:          logg,
	}, nil
}

// Execute snapshots the cart against the live menu, places the order and then
// clears the cart. A failure to clear is logged and does not undo the order.
func (s *service) Execute(ctx context.Context, input Input) (orders.Order, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if strings.TrimSpace(input.CafeID) == "" {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	ctx = s.logg.WithCafeID(ctx, input.CafeID)

	c, err := s.carts.Load(ctx, input.SessionID, input.CafeID)
	if err != nil {
		return orders.Order{}, err
	}
	if c.IsEmpty() {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeInvalidOrder, "cannot place empty order")
	}

	catalog, err := s.catalog.Catalog(ctx, input.CafeID)
	if err != nil {
		return orders.Order{}, err
	}
	if err := ensureAvailable(c, catalog); err != nil {
		return orders.Order{}, err
	}
	lines, err := cart.ToOrderLines(c, catalog)
	if err != nil {
		return orders.Order{}, err
	}

	pickup := s.defaultPickup
	if input.PickupOffsetMinutes != nil {
		pickup = *input.PickupOffsetMinutes
	}

	order, err := s.orders.Place(ctx, orders.PlaceInput{
		CafeID:              input.CafeID,
		SessionID:           input.SessionID,
		Lines:               lines,
		PickupOffsetMinutes: pickup,
		Note:                input.Note,
	})
	if err != nil {
		return orders.Order{}, err
	}

	if err := s.carts.Clear(ctx, input.SessionID, input.CafeID); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "failed to clear cart after checkout", err)
	}
	return order, nil
}

// ensureAvailable rejects carts holding items the café has since switched off.
func ensureAvailable(c cart.Cart, catalog cart.Catalog) error {
	var unavailable []string
	for _, line := range c.Lines {
		item, ok := catalog.Lookup(line.ItemID)
		if !ok {
			continue
		}
		if !item.Available {
			unavailable = append(unavailable, item.ID)
		}
	}
	if len(unavailable) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "some items are no longer available").WithDetails(map[string]any{
		"item_ids": unavailable,
	})
}
