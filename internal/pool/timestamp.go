package pool

import (
	"errors"
	"strconv"
	"time"
)

// ErrInvalidTimestamp is returned when no known layout matches.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Common timestamp layouts ordered by likelihood in event logs.
var commonLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	time.RFC3339Nano,
}

// ParseTimestamp parses a timestamp into nanoseconds since epoch.
// An explicit layout is tried first; purely numeric values are read as
// Unix seconds (10 digits or fewer) or milliseconds.
func ParseTimestamp(b []byte, layout string) (int64, error) {
	if len(b) == 0 {
		return 0, ErrInvalidTimestamp
	}
	s := string(b)

	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixNano(), nil
		}
	}

	if isDigits(b) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, ErrInvalidTimestamp
		}
		if len(b) <= 10 {
			return v * int64(time.Second), nil
		}
		return v * int64(time.Millisecond), nil
	}

	for _, l := range commonLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UnixNano(), nil
		}
	}
	return 0, ErrInvalidTimestamp
}

func isDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
