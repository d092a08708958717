package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// dateLayouts are tried in order when a date arrives as a string.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate converts a decoded JSON value into a UTC time for field.
// Strings are parsed with the supported layouts and numbers are treated as
// milliseconds since the Unix epoch. Anything else yields an InvalidDateError.
// Results are truncated to millisecond precision.
func ParseDate(field string, value any) (time.Time, error) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Truncate(time.Millisecond), nil
			}
		}
		return time.Time{}, InvalidDateError(field, v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, InvalidDateError(field, fmt.Sprint(v))
		}
		return time.UnixMilli(int64(v)).UTC(), nil
	case time.Time:
		return v.UTC().Truncate(time.Millisecond), nil
	default:
		return time.Time{}, InvalidDateError(field, fmt.Sprint(v))
	}
}

// Now returns the current UTC time at the millisecond precision every store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
