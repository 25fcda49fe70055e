package cart

import (
	"strings"

	cartsvc "github.com/angelmondragon/cafehop-backend/internal/cart"
)

// cartItemRequest selection maps customization id to option name.
type cartItemRequest struct {
	ItemID    string            `json:"item_id" validate:"required"`
	Selection map[string]string `json:"selection"`
}

func (p cartItemRequest) selection() cartsvc.Selection {
	if len(p.Selection) == 0 {
		return nil
	}
	out := make(cartsvc.Selection, len(p.Selection))
	for group, option := range p.Selection {
		out[strings.TrimSpace(group)] = strings.TrimSpace(option)
	}
	return out
}
