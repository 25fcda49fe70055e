package discovery

import (
	"math"
	"sort"
	"strings"

	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	"github.com/angelmondragon/cafehop-backend/pkg/types"
)

// CafeSummary is the read-only café record used for discovery.
type CafeSummary struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Address    string           `json:"address"`
	Coordinate types.Coordinate `json:"coordinate"`
	Rating     float64          `json:"rating"`
	Hours      WeeklyHours      `json:"hours"`
	CatalogID  string           `json:"catalog_id"`
}

// RankedCafe is a summary annotated for one user and one moment.
type RankedCafe struct {
	CafeSummary
	Distance Distance `json:"distance_miles"`
	OpenNow  bool     `json:"is_open_now"`
}

// Filters narrows and orders a ranking. A nil MaxDistance leaves distance
// unbounded; a zero bound keeps only cafés at the user's own location.
type Filters struct {
	MaxDistance *Distance
	OpenOnly    bool
	Sort        enums.CafeSort
	Query       string
}

// Rank annotates, filters and sorts cafés. Cafés with unusable coordinates are
// skipped rather than failing the whole ranking; an unusable user coordinate
// therefore yields no results.
func Rank(cafes []CafeSummary, user types.Coordinate, clock Clock, filters Filters) []RankedCafe {
	ranked := make([]RankedCafe, 0, len(cafes))
	if !user.IsValid() {
		return ranked
	}

	for _, cafe := range cafes {
		if !cafe.Coordinate.IsValid() {
			continue
		}
		ranked = append(ranked, RankedCafe{
			CafeSummary: cafe,
			Distance:    ComputeDistance(user, cafe.Coordinate),
			OpenNow:     IsOpenNow(cafe, clock),
		})
	}

	if filters.OpenOnly {
		ranked = keep(ranked, func(c RankedCafe) bool { return c.OpenNow })
	}
	if filters.MaxDistance != nil {
		limit := *filters.MaxDistance
		ranked = keep(ranked, func(c RankedCafe) bool { return c.Distance <= limit })
	}
	if query := strings.ToLower(strings.TrimSpace(filters.Query)); query != "" {
		ranked = keep(ranked, func(c RankedCafe) bool {
			return strings.Contains(strings.ToLower(c.Name), query) ||
				strings.Contains(strings.ToLower(c.Address), query)
		})
	}

	switch filters.Sort {
	case enums.CafeSortRating:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ratingKey(ranked[i].Rating) > ratingKey(ranked[j].Rating)
		})
	default:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Distance < ranked[j].Distance
		})
	}
	return ranked
}

// ExcludedCount reports how many cafés Rank would skip for bad coordinates.
func ExcludedCount(cafes []CafeSummary) int {
	count := 0
	for _, cafe := range cafes {
		if !cafe.Coordinate.IsValid() {
			count++
		}
	}
	return count
}

// Within returns a distance bound for Filters.MaxDistance.
func Within(miles float64) *Distance {
	d := Distance(miles)
	return &d
}

func keep(cafes []RankedCafe, pred func(RankedCafe) bool) []RankedCafe {
	out := cafes[:0]
	for _, cafe := range cafes {
		if pred(cafe) {
			out = append(out, cafe)
		}
	}
	return out
}

// NaN ratings sort last.
func ratingKey(rating float64) float64 {
	if math.IsNaN(rating) {
		return math.Inf(-1)
	}
	return rating
}
