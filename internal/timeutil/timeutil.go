// Package timeutil holds the timezone-aware calendar helpers shared by
// activity validation and the stats aggregator. All day bucketing happens in
// the owning user's IANA timezone, never in server time.
package timeutil

import (
	"time"

	"fluencytrail/models"
)

// DayIn returns t's calendar day in loc, formatted as models.DateLayout.
func DayIn(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.DateLayout)
}

// TodayIn returns the current calendar day in loc.
func TodayIn(loc *time.Location, now time.Time) string {
	return DayIn(now, loc)
}

// ParseDay parses a models.DateLayout day string.
func ParseDay(day string) (time.Time, error) {
	return time.Parse(models.DateLayout, day)
}

// AfterDay reports whether day a is strictly after day b. Both must be
// models.DateLayout strings; lexicographic comparison is exact for that
// layout.
func AfterDay(a, b string) bool {
	return a > b
}

// DaysBetween returns the whole-day difference between two DateLayout strings
// (b - a). Malformed input yields zero.
func DaysBetween(a, b string) int {
	ta, err := ParseDay(a)
	if err != nil {
		return 0
	}
	tb, err := ParseDay(b)
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}
