package cart

import (
	"fmt"

	"github.com/angelmondragon/cafehop-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
)

// Line is one cart row. Its identity is the item id plus the normalized
// selection, so the same drink with different milk is a separate line.
type Line struct {
	ItemID    string    `json:"item_id"`
	Quantity  int       `json:"quantity"`
	Selection Selection `json:"selection,omitempty"`
}

func (l Line) key() string {
	return lineKey(l.ItemID, l.Selection)
}

func lineKey(itemID string, selection Selection) string {
	return fmt.Sprintf("%q|%s", itemID, selection.Key())
}

// Cart is a value: every mutation returns a new Cart and leaves the receiver
// untouched.
type Cart struct {
	CafeID string `json:"cafe_id"`
	Lines  []Line `json:"lines"`
}

// New returns an empty cart for the café.
func New(cafeID string) Cart {
	return Cart{CafeID: cafeID, Lines: []Line{}}
}

func (c Cart) clone() Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{CafeID: c.CafeID, Lines: lines}
}

func (c Cart) indexOf(key string) int {
	for i, line := range c.Lines {
		if line.key() == key {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount sums quantities across lines.
func ItemCount(c Cart) int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// AddItem adds one unit of item with the given selection, merging into an
// existing identical line when present.
func AddItem(c Cart, item MenuItem, selection Selection) (Cart, error) {
	normalized := selection.Normalize()
	if err := validateSelection(item, normalized); err != nil {
		return c, err
	}
	if !item.Available {
		return c, pkgerrors.New(pkgerrors.CodeValidation, "menu item is unavailable").WithDetails(map[string]any{
			"item_id": item.ID,
		})
	}
	if c.CafeID != "" && item.CafeID != "" && c.CafeID != item.CafeID {
		return c, pkgerrors.New(pkgerrors.CodeValidation, "menu item belongs to a different cafe").WithDetails(map[string]any{
			"item_id":      item.ID,
			"cart_cafe_id": c.CafeID,
			"item_cafe_id": item.CafeID,
		})
	}

	next := c.clone()
	if next.CafeID == "" {
		next.CafeID = item.CafeID
	}
	if idx := next.indexOf(lineKey(item.ID, normalized)); idx >= 0 {
		next.Lines[idx].Quantity++
		return next, nil
	}
	next.Lines = append(next.Lines, Line{ItemID: item.ID, Quantity: 1, Selection: normalized})
	return next, nil
}

// RemoveItem takes one unit off the matching line and drops the line when it
// reaches zero. A missing line is a no-op.
func RemoveItem(c Cart, itemID string, selection Selection) Cart {
	idx := c.indexOf(lineKey(itemID, selection))
	if idx < 0 {
		return c
	}
	next := c.clone()
	if next.Lines[idx].Quantity > 1 {
		next.Lines[idx].Quantity--
		return next
	}
	next.Lines = append(next.Lines[:idx], next.Lines[idx+1:]...)
	return next
}

// LineTotal is (base price + selected deltas) × quantity.
func LineTotal(line Line, catalog Catalog) (money.Cents, error) {
	item, ok := catalog.Lookup(line.ItemID)
	if !ok {
		return 0, missingItemError(line.ItemID)
	}
	unit, _, err := unitPrice(item, line.Selection)
	if err != nil {
		return 0, err
	}
	return unit.Mul(line.Quantity), nil
}

// CartTotal sums LineTotal over every line; an empty cart totals zero.
func CartTotal(c Cart, catalog Catalog) (money.Cents, error) {
	total := money.Zero
	for _, line := range c.Lines {
		lineTotal, err := LineTotal(line, catalog)
		if err != nil {
			return 0, err
		}
		total = total.Add(lineTotal)
	}
	return total, nil
}

// ToOrderLines freezes current names and prices into order snapshots.
func ToOrderLines(c Cart, catalog Catalog) ([]orders.LineSnapshot, error) {
	lines := make([]orders.LineSnapshot, 0, len(c.Lines))
	for _, line := range c.Lines {
		item, ok := catalog.Lookup(line.ItemID)
		if !ok {
			return nil, missingItemError(line.ItemID)
		}
		unit, labels, err := unitPrice(item, line.Selection)
		if err != nil {
			return nil, err
		}
		lines = append(lines, orders.LineSnapshot{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: unit,
			Quantity:  line.Quantity,
			Options:   labels,
		})
	}
	return lines, nil
}

// unitPrice walks customizations in menu order so option labels are stable.
func unitPrice(item MenuItem, selection Selection) (money.Cents, []string, error) {
	normalized := selection.Normalize()
	if err := validateSelection(item, normalized); err != nil {
		return 0, nil, err
	}
	price := item.BasePrice
	var labels []string
	for _, group := range item.Customizations {
		choice, ok := normalized[group.ID]
		if !ok {
			continue
		}
		opt, _ := group.Option(choice)
		price = price.Add(opt.PriceDelta)
		labels = append(labels, fmt.Sprintf("%s: %s", group.Name, opt.Name))
	}
	return price, labels, nil
}

func validateSelection(item MenuItem, selection Selection) error {
	for id, choice := range selection {
		group, ok := item.Customization(id)
		if !ok {
			return unknownOptionError(item.ID, id, choice, "customization not offered for item")
		}
		if _, ok := group.Option(choice); !ok {
			return unknownOptionError(item.ID, id, choice, "option not offered for customization")
		}
	}
	return nil
}

func unknownOptionError(itemID, customizationID, option, reason string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeUnknownOption, reason).WithDetails(map[string]any{
		"item_id":          itemID,
		"customization_id": customizationID,
		"option":           option,
	})
}

func missingItemError(itemID string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").WithDetails(map[string]any{
		"item_id": itemID,
	})
}
