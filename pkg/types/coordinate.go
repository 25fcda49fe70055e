package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// IsValid reports whether both components are finite and inside the
// latitude/longitude ranges.
func (c Coordinate) IsValid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// String renders the point as "lat,lng".
func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}

// ParseCoordinate reads decimal-degree strings as stored by the backend.
func ParseCoordinate(lat, lng string) (Coordinate, error) {
	latValue, err := parseDegrees(lat)
	if err != nil {
		return Coordinate{}, fmt.Errorf("coordinate: latitude: %w", err)
	}
	lngValue, err := parseDegrees(lng)
	if err != nil {
		return Coordinate{}, fmt.Errorf("coordinate: longitude: %w", err)
	}
	c := Coordinate{Lat: latValue, Lng: lngValue}
	if !c.IsValid() {
		return c, fmt.Errorf("coordinate: %s out of range", c)
	}
	return c, nil
}

func parseDegrees(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", value, err)
	}
	return f, nil
}
