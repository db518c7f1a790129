package validate

import (
	"fmt"
	"time"
)

// Precision is the coarsest timestamp precision among the supported stores.
const Precision = time.Microsecond

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses an ISO 8601 date or date-time. Values without a zone are UTC,
// so "2024-01-31" is midnight UTC on that day.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 date %q", s)
}

// Normalize converts t to UTC at store precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(Precision)
}
