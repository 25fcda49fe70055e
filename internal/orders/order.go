package orders

import (
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineSnapshot freezes an item's name and price at checkout. UnitPrice already
// includes every selected customization delta.
type LineSnapshot struct {
	ItemID    string      `json:"item_id"`
	Name      string      `json:"name"`
	UnitPrice money.Cents `json:"unit_price"`
	Quantity  int         `json:"quantity"`
	Options   []string    `json:"options,omitempty"`
}

// Total returns UnitPrice × Quantity.
func (l LineSnapshot) Total() money.Cents {
	return l.UnitPrice.Mul(l.Quantity)
}

// Order is an immutable value; lifecycle operations return modified copies.
type Order struct {
	ID                  string            `json:"id"`
	CafeID              string            `json:"cafe_id"`
	SessionID           string            `json:"session_id,omitempty"`
	Lines               []LineSnapshot    `json:"lines"`
	Subtotal            money.Cents       `json:"subtotal"`
	Tax                 money.Cents       `json:"tax"`
	Total               money.Cents       `json:"total"`
	TaxRate             decimal.Decimal   `json:"tax_rate"`
	Status              enums.OrderStatus `json:"status"`
	CreatedAt           time.Time         `json:"created_at"`
	PickupOffsetMinutes int               `json:"pickup_offset_minutes"`
	Note                *string           `json:"note,omitempty"`
}

// PickupAt is the requested pickup time derived from creation time and offset.
func (o Order) PickupAt() time.Time {
	return o.CreatedAt.Add(time.Duration(o.PickupOffsetMinutes) * time.Minute)
}

// ItemCount sums quantities across all lines.
func (o Order) ItemCount() int {
	count := 0
	for _, line := range o.Lines {
		count += line.Quantity
	}
	return count
}

// NewOrderID returns a collision-resistant order identifier.
func NewOrderID() string {
	return "ord_" + uuid.NewString()
}

// clone copies the lines, their option labels and the note so the result
// shares no backing storage with o.
func (o Order) clone() Order {
	out := o
	if o.Lines != nil {
		out.Lines = make([]LineSnapshot, len(o.Lines))
		for i, line := range o.Lines {
			if line.Options != nil {
				line.Options = append([]string(nil), line.Options...)
			}
			out.Lines[i] = line
		}
	}
	if o.Note != nil {
		note := *o.Note
		out.Note = &note
	}
	return out
}
