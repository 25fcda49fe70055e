package cart

import (
	"sort"
	"strconv"
	"strings"

	"github.com/angelmondragon/cafehop-backend/pkg/money"
)

// Option is one choice inside a customization group.
type Option struct {
	Name       string      `json:"name"`
	PriceDelta money.Cents `json:"price_delta"`
}

// Customization is a single-select group of options ("Milk", "Size").
type Customization struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	MaxSelections int      `json:"max_selections"`
	Options       []Option `json:"options"`
}

// Option looks up an option by name.
func (c Customization) Option(name string) (Option, bool) {
	for _, opt := range c.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return Option{}, false
}

// MenuItem is read-only catalog data owned by the café.
type MenuItem struct {
	ID             string          `json:"id"`
	CafeID         string          `json:"cafe_id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	BasePrice      money.Cents     `json:"base_price"`
	Available      bool            `json:"available"`
	Customizations []Customization `json:"customizations,omitempty"`
}

// Customization looks up a customization group by id.
func (m MenuItem) Customization(id string) (Customization, bool) {
	for _, c := range m.Customizations {
		if c.ID == id {
			return c, true
		}
	}
	return Customization{}, false
}

// Catalog indexes menu items by id.
type Catalog map[string]MenuItem

// NewCatalog builds a catalog from a menu listing.
func NewCatalog(items ...MenuItem) Catalog {
	catalog := make(Catalog, len(items))
	for _, item := range items {
		catalog[item.ID] = item
	}
	return catalog
}

// Lookup returns the menu item with the given id.
func (c Catalog) Lookup(id string) (MenuItem, bool) {
	item, ok := c[id]
	return item, ok
}

// Items returns catalog entries grouped by category then name.
func (c Catalog) Items() []MenuItem {
	items := make([]MenuItem, 0, len(c))
	for _, item := range c {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Selection maps customization id to the chosen option name.
type Selection map[string]string

// Normalize drops empty choices and returns a fresh map.
func (s Selection) Normalize() Selection {
	out := Selection{}
	for id, option := range s {
		if strings.TrimSpace(id) == "" || strings.TrimSpace(option) == "" {
			continue
		}
		out[id] = option
	}
	return out
}

// Key is a canonical string for the normalized selection; two selections with
// the same choices always share a key.
func (s Selection) Key() string {
	normalized := s.Normalize()
	ids := make([]string, 0, len(normalized))
	for id := range normalized {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Quote(id))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(normalized[id]))
	}
	return b.String()
}
