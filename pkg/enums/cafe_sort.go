package enums

import "fmt"

// CafeSort selects the ordering of discovery results.
type CafeSort string

const (
	CafeSortDistance CafeSort = "distance"
	CafeSortRating   CafeSort = "rating"
)

var validCafeSorts = []CafeSort{
	CafeSortDistance,
	CafeSortRating,
}

// String implements fmt.Stringer.
func (s CafeSort) String() string {
	return string(s)
}

// IsValid reports whether the sort key is recognized.
func (s CafeSort) IsValid() bool {
	for _, candidate := range validCafeSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCafeSort converts raw input into a CafeSort. Empty input yields distance.
func ParseCafeSort(value string) (CafeSort, error) {
	if value == "" {
		return CafeSortDistance, nil
	}
	for _, candidate := range validCafeSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cafe sort %q", value)
}
