package utils

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	dateTimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
	emptyDate      = "-"
)

var now = time.Now

// ParseTimestamp parses timestamps as emitted by the backend (RFC3339 with or without fraction).
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, dateTimeLayout, dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// FormatDate renders the timestamp as 'YYYY-MM-DD HH:mm:ss' in local time, or '-' when it is empty or invalid.
func FormatDate(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return emptyDate
	}
	return t.Local().Format(dateTimeLayout)
}

// FormatDateShort renders the timestamp as 'YYYY-MM-DD'.
func FormatDateShort(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return emptyDate
	}
	return t.Local().Format(dateLayout)
}

// FormatRelativeTime renders the timestamp relative to now, e.g. "5 minutes ago".
func FormatRelativeTime(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return emptyDate
	}
	return humanize.RelTime(t, now(), "ago", "from now")
}

// CurrentDateTime returns the current local time as 'YYYY-MM-DD HH:mm:ss'.
func CurrentDateTime() string {
	return now().Format(dateTimeLayout)
}
