package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cafehop-backend/api/responses"
	"github.com/angelmondragon/cafehop-backend/api/validators"
	"github.com/angelmondragon/cafehop-backend/internal/cart"
	"github.com/angelmondragon/cafehop-backend/internal/menu"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
)

const maxMenuTextLength = 120

type menuResponse struct {
	CafeID string          `json:"cafe_id"`
	Items  []cart.MenuItem `json:"items"`
}

// MenuList returns every menu item of a café, unavailable ones included.
func MenuList(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		cafeID, err := cafeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), cafeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menuResponse{CafeID: cafeID, Items: items})
	}
}

type optionPayload struct {
	Name       string      `json:"name" validate:"required"`
	PriceDelta money.Cents `json:"price_delta"`
}

type customizationPayload struct {
	ID            string          `json:"id" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	MaxSelections int             `json:"max_selections" validate:"gte=0"`
	Options       []optionPayload `json:"options" validate:"required,min=1,dive"`
}

type upsertMenuItemRequest struct {
	Name           string                 `json:"name" validate:"required"`
	Category       string                 `json:"category"`
	BasePrice      money.Cents            `json:"base_price"`
	Available      *bool                  `json:"available"`
	Customizations []customizationPayload `json:"customizations" validate:"dive"`
}

func (p upsertMenuItemRequest) toMenuItem(cafeID, itemID string) cart.MenuItem {
	item := cart.MenuItem{
		ID:        itemID,
		CafeID:    cafeID,
		Name:      validators.SanitizeString(p.Name, maxMenuTextLength),
		Category:  validators.SanitizeString(p.Category, maxMenuTextLength),
		BasePrice: p.BasePrice,
		Available: p.Available == nil || *p.Available,
	}
	for _, group := range p.Customizations {
		options := make([]cart.Option, 0, len(group.Options))
		for _, opt := range group.Options {
			options = append(options, cart.Option{Name: opt.Name, PriceDelta: opt.PriceDelta})
		}
		item.Customizations = append(item.Customizations, cart.Customization{
			ID:            group.ID,
			Name:          group.Name,
			MaxSelections: group.MaxSelections,
			Options:       options,
		})
	}
	return item
}

// MenuItemUpsert creates or replaces one menu item.
func MenuItemUpsert(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		cafeID, err := cafeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload upsertMenuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpsertItem(r.Context(), payload.toMenuItem(cafeID, itemID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type availabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// MenuItemAvailability toggles whether an item can be ordered.
func MenuItemAvailability(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		cafeID, err := cafeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload availabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SetAvailability(r.Context(), cafeID, chi.URLParam(r, "itemId"), *payload.Available)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func cafeIDParam(r *http.Request) (string, error) {
	cafeID := strings.TrimSpace(chi.URLParam(r, "cafeId"))
	if cafeID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	return cafeID, nil
}
