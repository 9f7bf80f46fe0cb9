package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire and as a map key.
const DateLayout = "2006-01-02"

// DateOf strips the time of day from t, keeping t's calendar date, and
// returns midnight UTC of that date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key returns the UTC calendar date of t as YYYY-MM-DD. Stored dates are
// midnight UTC, so drivers that hand them back in another zone still key
// to the same day.
func Key(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Key(a) == Key(b)
}
