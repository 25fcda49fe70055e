package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// allowedTransitions is the complete edge table of the order state machine:
//
//	new --> preparing --> ready --> completed
//	 |           |           |
//	 +-----------+-----------+--> cancelled
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew:       {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing: {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:     {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
}

var forwardStep = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusNew:       enums.OrderStatusPreparing,
	enums.OrderStatusPreparing: enums.OrderStatusReady,
	enums.OrderStatusReady:     enums.OrderStatusCompleted,
}

// CreateOrderInput carries everything CreateOrder needs; Now is supplied by the
// caller so results are deterministic.
type CreateOrderInput struct {
	ID                  string
	CafeID              string
	SessionID           string
	Lines               []LineSnapshot
	TaxRate             decimal.Decimal
	PickupOffsetMinutes int
	Note                *string
	Now                 time.Time
}

// CreateOrder prices the snapshot lines and returns a new order in status new.
// The tax is rounded half-up to the cent once, so Total == Subtotal + Tax holds
// exactly.
func CreateOrder(input CreateOrderInput) (Order, error) {
	if len(input.Lines) == 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeInvalidOrder, "cannot place empty order")
	}
	for i, line := range input.Lines {
		if line.Quantity <= 0 {
			return Order{}, pkgerrors.New(pkgerrors.CodeInvalidOrder, "line quantity must be positive").WithDetails(map[string]any{
				"line":     i,
				"item_id":  line.ItemID,
				"quantity": line.Quantity,
			})
		}
		if line.UnitPrice.IsNegative() {
			return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "line unit price cannot be negative").WithDetails(map[string]any{
				"line":    i,
				"item_id": line.ItemID,
			})
		}
	}
	if strings.TrimSpace(input.ID) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if strings.TrimSpace(input.CafeID) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	if input.TaxRate.IsNegative() {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be non-negative")
	}
	if input.PickupOffsetMinutes < 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "pickup offset must be non-negative")
	}

	lines := make([]LineSnapshot, len(input.Lines))
	copy(lines, input.Lines)

	subtotal := money.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Total())
	}
	tax := subtotal.ApplyRate(input.TaxRate)

	var note *string
	if input.Note != nil {
		trimmed := strings.TrimSpace(*input.Note)
		if trimmed != "" {
			note = &trimmed
		}
	}

	return Order{
		ID:                  input.ID,
		CafeID:              input.CafeID,
		SessionID:           strings.TrimSpace(input.SessionID),
		Lines:               lines,
		Subtotal:            subtotal,
		Tax:                 tax,
		Total:               subtotal.Add(tax),
		TaxRate:             input.TaxRate,
		Status:              enums.OrderStatusNew,
		CreatedAt:           input.Now,
		PickupOffsetMinutes: input.PickupOffsetMinutes,
		Note:                note,
	}, nil
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Transition moves the order to target. On failure the input order is returned
// unchanged alongside an ILLEGAL_TRANSITION error. The order carries no
// timestamps beyond creation; callers record when the change happened.
func Transition(order Order, target enums.OrderStatus, now time.Time) (Order, error) {
	if !CanTransition(order.Status, target) {
		return order, IllegalTransitionError(order.Status, target)
	}
	next := order.clone()
	next.Status = target
	return next, nil
}

// NextStatus returns the single forward step from current, used for one-tap
// advancement. Terminal statuses have no next step.
func NextStatus(current enums.OrderStatus) (enums.OrderStatus, bool) {
	next, ok := forwardStep[current]
	return next, ok
}

// IllegalTransitionError names both the current and the requested status.
func IllegalTransitionError(from, to enums.OrderStatus) *pkgerrors.Error {
	return pkgerrors.New(
		pkgerrors.CodeIllegalTransition,
		fmt.Sprintf("cannot transition order from %q to %q", from, to),
	).WithDetails(map[string]any{
		"from": from.String(),
		"to":   to.String(),
	})
}
