package service

import (
	"strings"
	"time"
)

// Layouts without a zone are read as UTC.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 (fractional seconds optional) and a few
// zone-less ISO 8601 forms. The result is in UTC, truncated to the
// millisecond resolution events are compared, stored and served at.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t.UTC().Truncate(time.Millisecond), nil
	}
	for _, layout := range localLayouts {
		if lt, lerr := time.ParseInLocation(layout, raw, time.UTC); lerr == nil {
			return lt.Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, err
}
