package storage

import (
	"fmt"
	"time"
)

// dbTimeLayout is a fixed-width RFC 3339 layout. RFC3339Nano trims trailing
// zeros, which breaks lexicographic ordering on text columns around whole
// seconds; padding the fraction keeps string order equal to time order.
const dbTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timeToDBString serialises a timestamp for text-column backends, in UTC.
func timeToDBString(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

// dbStringToTime parses a timestamp stored by timeToDBString.
func dbStringToTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
