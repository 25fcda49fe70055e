package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cafehop-backend/api/responses"
	"github.com/angelmondragon/cafehop-backend/api/validators"
	"github.com/angelmondragon/cafehop-backend/internal/cafes"
	"github.com/angelmondragon/cafehop-backend/internal/discovery"
	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/types"
)

const maxSearchQueryLength = 100

type nearbyResponse struct {
	Cafes []discovery.RankedCafe `json:"cafes"`
	Count int                    `json:"count"`
}

// CafesNearby ranks active cafés around the caller's coordinate.
func CafesNearby(svc discovery.Service, defaultMaxDistance float64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discovery service unavailable"))
			return
		}

		query, err := parseNearbyQuery(r, defaultMaxDistance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ranked, err := svc.Nearby(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nearbyResponse{Cafes: ranked, Count: len(ranked)})
	}
}

func parseNearbyQuery(r *http.Request, defaultMaxDistance float64) (discovery.NearbyQuery, error) {
	lat, err := validators.RequireQueryFloat(r, "lat")
	if err != nil {
		return discovery.NearbyQuery{}, err
	}
	lng, err := validators.RequireQueryFloat(r, "lng")
	if err != nil {
		return discovery.NearbyQuery{}, err
	}
	var maxDistance *discovery.Distance
	if strings.TrimSpace(r.URL.Query().Get("max_distance")) != "" {
		value, err := validators.ParseQueryFloat(r, "max_distance", 0)
		if err != nil {
			return discovery.NearbyQuery{}, err
		}
		maxDistance = discovery.Within(value)
	} else if defaultMaxDistance > 0 {
		maxDistance = discovery.Within(defaultMaxDistance)
	}
	openOnly, err := validators.ParseQueryBool(r, "open_only", false)
	if err != nil {
		return discovery.NearbyQuery{}, err
	}

	raw := strings.TrimSpace(r.URL.Query().Get("sort"))
	sort, err := enums.ParseCafeSort(strings.ToLower(raw))
	if err != nil {
		return discovery.NearbyQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").WithDetails(map[string]any{
			"sort":    raw,
			"allowed": []string{enums.CafeSortDistance.String(), enums.CafeSortRating.String()},
		})
	}

	return discovery.NearbyQuery{
		User: types.Coordinate{Lat: lat, Lng: lng},
		Filters: discovery.Filters{
			MaxDistance: maxDistance,
			OpenOnly:    openOnly,
			Sort:        sort,
			Query:       validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLength),
		},
	}, nil
}

type dayHoursPayload struct {
	Weekday int    `json:"weekday" validate:"min=1,max=7"`
	Open    string `json:"open,omitempty" validate:"omitempty,timeofday"`
	Close   string `json:"close,omitempty" validate:"omitempty,timeofday"`
	Closed  bool   `json:"closed"`
}

type updateHoursRequest struct {
	Days []dayHoursPayload `json:"days" validate:"max=7,dive"`
}

func (p updateHoursRequest) toWeeklyHours() (discovery.WeeklyHours, error) {
	hours := make(discovery.WeeklyHours, len(p.Days))
	for _, day := range p.Days {
		if _, dup := hours[day.Weekday]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weekday listed twice").WithDetails(map[string]any{"weekday": day.Weekday})
		}
		hours[day.Weekday] = discovery.DayHours{Open: day.Open, Close: day.Close, Closed: day.Closed}
	}
	return hours, nil
}

// CafeHoursUpdate replaces a café's weekly schedule and drops the cached
// listing so discovery sees the change immediately.
func CafeHoursUpdate(svc cafes.Service, discoverySvc discovery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cafe service unavailable"))
			return
		}

		cafeID := strings.TrimSpace(chi.URLParam(r, "cafeId"))
		if cafeID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required"))
			return
		}

		var payload updateHoursRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		hours, err := payload.toWeeklyHours()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.UpdateHours(r.Context(), cafeID, hours)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if discoverySvc != nil {
			if err := discoverySvc.Invalidate(r.Context()); err != nil && logg != nil {
				logg.Error(logg.WithCafeID(r.Context(), cafeID), "failed to invalidate cafe cache", err)
			}
		}

		responses.WriteSuccess(w, summary)
	}
}
