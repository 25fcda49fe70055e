package discovery

import (
	"math"

	"github.com/angelmondragon/cafehop-backend/pkg/types"
)

const (
	earthRadiusMiles  = 3958.8
	kilometersPerMile = 1.609344
)

// Distance is a great-circle distance in miles.
type Distance float64

// Miles returns the distance as a plain float.
func (d Distance) Miles() float64 {
	return float64(d)
}

// Kilometers converts for display.
func (d Distance) Kilometers() float64 {
	return float64(d) * kilometersPerMile
}

// ComputeDistance returns the haversine distance between two coordinates.
// The result is symmetric and zero for identical points.
func ComputeDistance(a, b types.Coordinate) Distance {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	return Distance(2 * earthRadiusMiles * math.Asin(math.Sqrt(h)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
