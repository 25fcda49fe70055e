package orders

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/metrics"
	"github.com/angelmondragon/cafehop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

const maxNoteLength = 280

// Service exposes order placement and the staff-facing lifecycle operations.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	ListByCafe(ctx context.Context, input ListInput) (ListResult, error)
	ListBySession(ctx context.Context, input SessionListInput) (ListResult, error)
	UpdateStatus(ctx context.Context, id string, target enums.OrderStatus) (Order, error)
	Advance(ctx context.Context, id string) (Order, error)
	Cancel(ctx context.Context, id string) (Order, error)
}

// PlaceInput is a priced cart snapshot ready to become an order. SessionID
// links the order to the customer's order history.
type PlaceInput struct {
	CafeID              string
	SessionID           string
	Lines               []LineSnapshot
	PickupOffsetMinutes int
	Note                *string
}

// ListInput filters a café's orders for the admin screen.
type ListInput struct {
	CafeID   string
	Statuses []enums.OrderStatus
	Params   pagination.Params
}

// HistoryScope splits a customer's orders into the ones still in progress and
// the ones that are finished.
type HistoryScope string

const (
	HistoryScopeAll     HistoryScope = ""
	HistoryScopeCurrent HistoryScope = "current"
	HistoryScopePast    HistoryScope = "past"
)

// ParseHistoryScope accepts "", "all", "current" or "past".
func ParseHistoryScope(value string) (HistoryScope, error) {
	switch HistoryScope(strings.ToLower(strings.TrimSpace(value))) {
	case HistoryScopeAll, "all":
		return HistoryScopeAll, nil
	case HistoryScopeCurrent:
		return HistoryScopeCurrent, nil
	case HistoryScopePast:
		return HistoryScopePast, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "scope must be current or past").WithDetails(map[string]any{
		"scope": value,
	})
}

// Statuses lists the order statuses the scope covers; nil means every status.
func (s HistoryScope) Statuses() []enums.OrderStatus {
	if s == HistoryScopeAll {
		return nil
	}
	var out []enums.OrderStatus
	for _, status := range enums.OrderStatuses() {
		if status.IsTerminal() == (s == HistoryScopePast) {
			out = append(out, status)
		}
	}
	return out
}

// SessionListInput pages through the orders one browsing session placed.
type SessionListInput struct {
	SessionID string
	Scope     HistoryScope
	Params    pagination.Params
}

// ListResult is one page of orders plus the cursor for the next page.
type ListResult struct {
	Orders     []Order
	NextCursor string
}

// ServiceConfig carries the pricing and observability dependencies.
type ServiceConfig struct {
	TaxRate          decimal.Decimal
	MaxPickupMinutes int
	Now              func() time.Time
	Metrics          *metrics.OrderMetrics
	Logger           *logger.Logger
}

type service struct {
	repo       Repository
	taxRate    decimal.Decimal
	maxPickup  int
	now        func() time.Time
	metrics    *metrics.OrderMetrics
	logg       *logger.Logger
	generateID func() string
}

// NewService wires the orders service.
func NewService(repo Repository, cfg ServiceConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if cfg.TaxRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tax rate must be non-negative")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logg := cfg.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       repo,
		taxRate:    cfg.TaxRate,
		maxPickup:  cfg.MaxPickupMinutes,
		now:        now,
		metrics:    cfg.Metrics,
		logg:       logg,
		generateID: NewOrderID,
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceInput) (Order, error) {
	if s.maxPickup > 0 && input.PickupOffsetMinutes > s.maxPickup {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "pickup offset exceeds maximum").WithDetails(map[string]any{
			"pickup_offset_minutes": input.PickupOffsetMinutes,
			"max_pickup_minutes":    s.maxPickup,
		})
	}
	if input.Note != nil && len([]rune(strings.TrimSpace(*input.Note))) > maxNoteLength {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "note is too long").WithDetails(map[string]any{
			"max_length": maxNoteLength,
		})
	}

	order, err := CreateOrder(CreateOrderInput{
		ID:                  s.generateID(),
		CafeID:              input.CafeID,
		SessionID:           input.SessionID,
		Lines:               input.Lines,
		TaxRate:             s.taxRate,
		PickupOffsetMinutes: input.PickupOffsetMinutes,
		Note:                input.Note,
		Now:                 s.now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return Order{}, err
	}

	if err := s.repo.Create(ctx, toModel(order)); err != nil {
		return Order{}, err
	}

	ctx = s.logg.WithOrderID(s.logg.WithCafeID(ctx, order.CafeID), order.ID)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"total":      order.Total.String(),
		"item_count": order.ItemCount(),
	})
	s.logg.Info(ctx, "order placed")

	total, _ := order.Total.Decimal().Float64()
	s.metrics.ObservePlaced(order.CafeID, total)
	return order, nil
}

func (s *service) Get(ctx context.Context, id string) (Order, error) {
	if strings.TrimSpace(id) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return fromModel(*row)
}

func (s *service) ListByCafe(ctx context.Context, input ListInput) (ListResult, error) {
	if strings.TrimSpace(input.CafeID) == "" {
		return ListResult{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	for _, status := range input.Statuses {
		if !status.IsValid() {
			return ListResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter").WithDetails(map[string]any{
				"status": status.String(),
			})
		}
	}
	return s.page(ctx, ListQuery{CafeID: input.CafeID, Statuses: input.Statuses}, input.Params)
}

// ListBySession returns a customer's orders, newest first. The current scope
// holds orders the café is still working on; past holds completed and
// cancelled ones.
func (s *service) ListBySession(ctx context.Context, input SessionListInput) (ListResult, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return ListResult{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	scope, err := ParseHistoryScope(string(input.Scope))
	if err != nil {
		return ListResult{}, err
	}
	return s.page(ctx, ListQuery{SessionID: strings.TrimSpace(input.SessionID), Statuses: scope.Statuses()}, input.Params)
}

func (s *service) page(ctx context.Context, query ListQuery, params pagination.Params) (ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return ListResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query.Cursor = cursor
	query.Limit = pagination.LimitWithBuffer(params.Limit)
	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return ListResult{}, err
	}

	rows, next := pagination.Trim(rows, params.Limit, func(row models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	result := ListResult{Orders: make([]Order, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		order, err := fromModel(row)
		if err != nil {
			return ListResult{}, err
		}
		result.Orders = append(result.Orders, order)
	}
	return result, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, target enums.OrderStatus) (Order, error) {
	if !target.IsValid() {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").WithDetails(map[string]any{
			"status": target.String(),
		})
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return s.apply(ctx, current, target)
}

func (s *service) Advance(ctx context.Context, id string) (Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	next, ok := NextStatus(current.Status)
	if !ok {
		s.metrics.IncRejected(current.Status.String(), "next")
		return Order{}, pkgerrors.New(pkgerrors.CodeIllegalTransition, "order has no next status").WithDetails(map[string]any{
			"from": current.Status.String(),
		})
	}
	return s.apply(ctx, current, next)
}

func (s *service) Cancel(ctx context.Context, id string) (Order, error) {
	return s.UpdateStatus(ctx, id, enums.OrderStatusCancelled)
}

func (s *service) apply(ctx context.Context, current Order, target enums.OrderStatus) (Order, error) {
	now := s.now().UTC()
	next, err := Transition(current, target, now)
	if err != nil {
		s.metrics.IncRejected(current.Status.String(), target.String())
		return Order{}, err
	}
	if err := s.repo.UpdateStatus(ctx, current.ID, current.Status, target, now); err != nil {
		return Order{}, err
	}

	ctx = s.logg.WithOrderID(s.logg.WithCafeID(ctx, current.CafeID), current.ID)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"from": current.Status.String(),
		"to":   target.String(),
	})
	s.logg.Info(ctx, "order status updated")
	s.metrics.IncTransition(current.Status.String(), target.String())
	return next, nil
}
