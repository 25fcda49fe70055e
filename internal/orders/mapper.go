package orders

import (
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
	"github.com/shopspring/decimal"
)

func toModel(order Order) *models.Order {
	lines := make([]models.OrderLine, len(order.Lines))
	for i, line := range order.Lines {
		options := line.Options
		if options == nil {
			options = []string{}
		}
		lines[i] = models.OrderLine{
			OrderID:        order.ID,
			Position:       i,
			ItemID:         line.ItemID,
			Name:           line.Name,
			UnitPriceCents: int64(line.UnitPrice),
			Quantity:       line.Quantity,
			Options:        options,
		}
	}
	createdAt := order.CreatedAt.UTC().Truncate(time.Microsecond)
	return &models.Order{
		ID:                  order.ID,
		CafeID:              order.CafeID,
		SessionID:           order.SessionID,
		Status:              order.Status,
		SubtotalCents:       int64(order.Subtotal),
		TaxCents:            int64(order.Tax),
		TotalCents:          int64(order.Total),
		TaxRate:             order.TaxRate.String(),
		PickupOffsetMinutes: order.PickupOffsetMinutes,
		Note:                order.Note,
		Lines:               lines,
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}
}

func fromModel(row models.Order) (Order, error) {
	rate, err := decimal.NewFromString(row.TaxRate)
	if err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored tax rate is malformed").WithDetails(map[string]any{
			"order_id": row.ID,
		})
	}
	lines := make([]LineSnapshot, len(row.Lines))
	for i, line := range row.Lines {
		var options []string
		if len(line.Options) > 0 {
			options = line.Options
		}
		lines[i] = LineSnapshot{
			ItemID:    line.ItemID,
			Name:      line.Name,
			UnitPrice: money.Cents(line.UnitPriceCents),
			Quantity:  line.Quantity,
			Options:   options,
		}
	}
	return Order{
		ID:                  row.ID,
		CafeID:              row.CafeID,
		SessionID:           row.SessionID,
		Lines:               lines,
		Subtotal:            money.Cents(row.SubtotalCents),
		Tax:                 money.Cents(row.TaxCents),
		Total:               money.Cents(row.TotalCents),
		TaxRate:             rate,
		Status:              row.Status,
		CreatedAt:           row.CreatedAt.UTC(),
		PickupOffsetMinutes: row.PickupOffsetMinutes,
		Note:                row.Note,
	}, nil
}
