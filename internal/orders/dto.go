package orders

import (
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
)

// OrderResponse is the API shape of an order, with derived fields filled in.
type OrderResponse struct {
	ID                  string            `json:"id"`
	CafeID              string            `json:"cafe_id"`
	SessionID           string            `json:"session_id,omitempty"`
	Status              enums.OrderStatus `json:"status"`
	NextStatus          *string           `json:"next_status,omitempty"`
	Lines               []LineSnapshot    `json:"lines"`
	ItemCount           int               `json:"item_count"`
	Subtotal            money.Cents       `json:"subtotal"`
	Tax                 money.Cents       `json:"tax"`
	Total               money.Cents       `json:"total"`
	TaxRate             string            `json:"tax_rate"`
	PickupOffsetMinutes int               `json:"pickup_offset_minutes"`
	PickupAt            time.Time         `json:"pickup_at"`
	Note                *string           `json:"note,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// NewOrderResponse maps an order into its response shape.
func NewOrderResponse(order Order) OrderResponse {
	lines := order.Lines
	if lines == nil {
		lines = []LineSnapshot{}
	}
	resp := OrderResponse{
		ID:                  order.ID,
		CafeID:              order.CafeID,
		SessionID:           order.SessionID,
		Status:              order.Status,
		Lines:               lines,
		ItemCount:           order.ItemCount(),
		Subtotal:            order.Subtotal,
		Tax:                 order.Tax,
		Total:               order.Total,
		TaxRate:             order.TaxRate.String(),
		PickupOffsetMinutes: order.PickupOffsetMinutes,
		PickupAt:            order.PickupAt(),
		Note:                order.Note,
		CreatedAt:           order.CreatedAt,
	}
	if next, ok := NextStatus(order.Status); ok {
		value := next.String()
		resp.NextStatus = &value
	}
	return resp
}

// NewOrderList maps a service page into its response shape.
func NewOrderList(result ListResult) OrderList {
	out := OrderList{Orders: make([]OrderResponse, 0, len(result.Orders)), NextCursor: result.NextCursor}
	for _, order := range result.Orders {
		out.Orders = append(out.Orders, NewOrderResponse(order))
	}
	return out
}
