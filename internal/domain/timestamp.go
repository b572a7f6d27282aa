package domain

import (
	"errors"
	"strings"
	"time"
)

// TimestampLayout is the wire format for every timestamp the API emits.
const TimestampLayout = "2006-01-02T15:04:05Z"

// ErrInvalidTimestamp is returned by ParseTimestamp for unparseable input.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// FormatTimestamp renders t in UTC at whole-second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 input with or without fractional seconds
// and with any offset. Input without an offset is read as UTC. The result is
// normalised to UTC and truncated to whole seconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NormalizeTime(t), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return NormalizeTime(t), nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// NormalizeTime converts t to UTC and drops sub-second precision.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
