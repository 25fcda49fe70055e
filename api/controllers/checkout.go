package controllers

import (
	"net/http"

	"github.com/angelmondragon/cafehop-backend/api/responses"
	"github.com/angelmondragon/cafehop-backend/api/validators"
	"github.com/angelmondragon/cafehop-backend/internal/checkout"
	"github.com/angelmondragon/cafehop-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
)

// Notes are trimmed here but length-checked by the orders service.
const maxNoteInputLength = 2000

type checkoutRequest struct {
	SessionID           string  `json:"session_id" validate:"required"`
	CafeID              string  `json:"cafe_id" validate:"required"`
	PickupOffsetMinutes *int    `json:"pickup_offset_minutes" validate:"omitempty,gte=0"`
	Note                *string `json:"note"`
}

// Checkout turns the session's cart for one café into a placed order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), checkout.Input{
			SessionID:           validators.SanitizeString(payload.SessionID, 0),
			CafeID:              validators.SanitizeString(payload.CafeID, 0),
			PickupOffsetMinutes: payload.PickupOffsetMinutes,
			Note:                validators.SanitizeOptional(payload.Note, maxNoteInputLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orders.NewOrderResponse(order))
	}
}
