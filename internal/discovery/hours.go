package discovery

import (
	"time"
)

const timeOfDayLayout = "15:04"

// DayHours is one weekday's opening window in local "HH:MM".
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

// WeeklyHours is keyed by weekday, 1=Monday through 7=Sunday.
type WeeklyHours map[int]DayHours

// Clock is the caller-supplied notion of "now" used for open checks.
type Clock struct {
	Weekday   int    `json:"weekday"`
	LocalTime string `json:"local_time"`
}

// ClockAt derives a Clock from t in t's own location.
func ClockAt(t time.Time) Clock {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return Clock{Weekday: weekday, LocalTime: t.Format(timeOfDayLayout)}
}

// ValidWeekday reports whether day is in 1..7.
func ValidWeekday(day int) bool {
	return day >= 1 && day <= 7
}

// ValidTimeOfDay reports whether value is a zero-padded 24h "HH:MM".
func ValidTimeOfDay(value string) bool {
	if len(value) != len(timeOfDayLayout) {
		return false
	}
	_, err := time.Parse(timeOfDayLayout, value)
	return err == nil
}

// Validate checks every entry; a closed day may omit its times.
func (d DayHours) Validate() bool {
	if d.Closed {
		return true
	}
	return ValidTimeOfDay(d.Open) && ValidTimeOfDay(d.Close) && d.Open <= d.Close
}

// IsOpenNow compares zero-padded HH:MM strings, inclusive at both ends.
// Windows that cross midnight are not supported and read as closed.
func IsOpenNow(cafe CafeSummary, clock Clock) bool {
	day, ok := cafe.Hours[clock.Weekday]
	if !ok || day.Closed {
		return false
	}
	if !ValidTimeOfDay(day.Open) || !ValidTimeOfDay(day.Close) || !ValidTimeOfDay(clock.LocalTime) {
		return false
	}
	return day.Open <= clock.LocalTime && clock.LocalTime <= day.Close
}
