package inventory

import (
	"fmt"
	"strings"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
)

// DateLayout is the 8-digit YYYYMMDD encoding used by the food databases and the API.
const DateLayout = "20060102"

// isoDateLayout is accepted on input only.
const isoDateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// ParseDate parses an expiration date in YYYYMMDD (or YYYY-MM-DD) form.
// The result is the calendar date at UTC midnight.
// Returns ErrInvalidDate if the value is not a valid calendar date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layout := DateLayout
	switch len(value) {
	case len(DateLayout):
		if !allDigits(value) {
			return time.Time{}, fmt.Errorf("%q: %w", value, fridgeerrors.ErrInvalidDate)
		}
	case len(isoDateLayout):
		layout = isoDateLayout
	default:
		return time.Time{}, fmt.Errorf("%q: %w", value, fridgeerrors.ErrInvalidDate)
	}
	date, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", value, fridgeerrors.ErrInvalidDate)
	}
	return date, nil
}

// FormatDate formats a date in the 8-digit YYYYMMDD form.
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// Truncate returns the calendar date of t (in t's own location) at UTC midnight.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from `from` to `to`.
// time.Duration saturates at about 292 years, so the difference is taken in Unix seconds.
func DaysBetween(from, to time.Time) int {
	return int((Truncate(to).Unix() - Truncate(from).Unix()) / secondsPerDay)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
