package domain

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	HourLayout = "15:04"
)

// ParseLocal resolves a calendar date and HH:MM start in the studio location.
func ParseLocal(dateKey, hour string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+HourLayout, dateKey+" "+hour, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q %q: %w", dateKey, hour, err)
	}
	return t, nil
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// BedsPerClass is the number of beds offered at one start time.
func BedsPerClass(d time.Weekday) int {
	if IsWeekend(d) {
		return 5
	}
	return 8
}

// CancellationWindow is how long before the start a reservation may still be cancelled.
const CancellationWindow = 24 * time.Hour

// CancellationOpen reports whether a reservation starting at start may be cancelled at now.
// The window closes exactly CancellationWindow before the start.
func CancellationOpen(start, now time.Time) bool {
	return start.Sub(now) > CancellationWindow
}
