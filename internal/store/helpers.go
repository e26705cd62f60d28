package store

import (
	"strings"
	"time"
)

// Timestamps are stored as fixed-width UTC text so ORDER BY on the column
// sorts chronologically. Trigger dates keep day precision only.
const (
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout = time.DateOnly
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseStoredTime reads a column written by formatTime or by SQLite's
// datetime(). Unparseable or empty text yields the zero time.
func parseStoredTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nullText stores an empty string as NULL.
func nullText(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// nullTime stores the zero time as NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// placeholders returns "?,?,?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
