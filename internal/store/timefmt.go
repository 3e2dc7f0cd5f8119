package store

import (
	"fmt"
	"time"
)

// legacyTimeLayout is the naive UTC-implied form written by earlier schema
// versions. It is accepted on read and never written.
const legacyTimeLayout = "2006-01-02 15:04:05"

// formatTime renders the canonical stored form: RFC 3339 in UTC, whole
// seconds. The fixed width keeps stored timestamps ordered under SQLite's
// string comparison.
func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// parseDBTime parses a stored timestamp. Zoned RFC 3339 strings and the
// legacy naive form are both accepted; naive values are taken as UTC.
func parseDBTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(legacyTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
