package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cafehop-backend/api/responses"
	"github.com/angelmondragon/cafehop-backend/api/validators"
	cartsvc "github.com/angelmondragon/cafehop-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
)

// CartFetch returns the priced cart for a session at one café.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		keys, err := cartKeysFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), keys.sessionID, keys.cafeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds one unit of an item with its option selection.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		keys, err := cartKeysFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Add(r.Context(), keys.sessionID, keys.cafeID, strings.TrimSpace(payload.ItemID), payload.selection())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartRemoveItem removes one unit of the matching line; a missing line is a no-op.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		keys, err := cartKeysFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Remove(r.Context(), keys.sessionID, keys.cafeID, strings.TrimSpace(payload.ItemID), payload.selection())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type cartKeys struct {
	sessionID string
	cafeID    string
}

func cartKeysFromRequest(r *http.Request) (cartKeys, error) {
	keys := cartKeys{
		sessionID: strings.TrimSpace(chi.URLParam(r, "sessionId")),
		cafeID:    strings.TrimSpace(chi.URLParam(r, "cafeId")),
	}
	if keys.sessionID == "" {
		return cartKeys{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if keys.cafeID == "" {
		return cartKeys{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	return keys, nil
}
