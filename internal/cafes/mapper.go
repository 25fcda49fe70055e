package cafes

import (
	"fmt"

	"github.com/angelmondragon/cafehop-backend/internal/discovery"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	"github.com/angelmondragon/cafehop-backend/pkg/types"
	"go.uber.org/multierr"
)

// toSummary maps a café row for discovery. Coordinates that parse but fall
// outside the valid range are kept so the ranker can count and skip them;
// unparseable coordinates make the row unusable. Malformed hour rows are
// dropped, which reads as closed that day.
func toSummary(row models.Cafe) (discovery.CafeSummary, bool, error) {
	var errs error
	coord, err := types.ParseCoordinate(row.Latitude, row.Longitude)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("cafe %s: %w", row.ID, err))
		if coord == (types.Coordinate{}) {
			return discovery.CafeSummary{}, false, errs
		}
	}

	hours := discovery.WeeklyHours{}
	for _, h := range row.Hours {
		day, err := toDayHours(h)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cafe %s: %w", row.ID, err))
			continue
		}
		hours[h.Weekday] = day
	}

	return discovery.CafeSummary{
		ID:         row.ID,
		Name:       row.Name,
		Address:    row.Address,
		Coordinate: coord,
		Rating:     row.Rating,
		Hours:      hours,
		CatalogID:  row.ID,
	}, true, errs
}

func toDayHours(row models.CafeHours) (discovery.DayHours, error) {
	if !discovery.ValidWeekday(row.Weekday) {
		return discovery.DayHours{}, fmt.Errorf("weekday %d out of range", row.Weekday)
	}
	if row.IsClosed {
		return discovery.DayHours{Closed: true}, nil
	}
	if row.OpenTime == nil || row.CloseTime == nil {
		return discovery.DayHours{}, fmt.Errorf("weekday %d missing open or close time", row.Weekday)
	}
	day := discovery.DayHours{Open: *row.OpenTime, Close: *row.CloseTime}
	if !day.Validate() {
		return discovery.DayHours{}, fmt.Errorf("weekday %d has invalid window %s-%s", row.Weekday, day.Open, day.Close)
	}
	return day, nil
}

func toHourRows(cafeID string, hours discovery.WeeklyHours) []models.CafeHours {
	rows := make([]models.CafeHours, 0, len(hours))
	for weekday := 1; weekday <= 7; weekday++ {
		day, ok := hours[weekday]
		if !ok {
			continue
		}
		row := models.CafeHours{CafeID: cafeID, Weekday: weekday, IsClosed: day.Closed}
		if !day.Closed {
			open, closing := day.Open, day.Close
			row.OpenTime = &open
			row.CloseTime = &closing
		}
		rows = append(rows, row)
	}
	return rows
}
