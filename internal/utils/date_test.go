package utils

import (
	"testing"
	"time"
)

func TestFormatDateEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "not a date"} {
		if got := FormatDate(input); got != "-" {
			t.Fatalf("FormatDate(%q): expected '-', got %q", input, got)
		}
		if got := FormatDateShort(input); got != "-" {
			t.Fatalf("FormatDateShort(%q): expected '-', got %q", input, got)
		}
		if got := FormatRelativeTime(input); got != "-" {
			t.Fatalf("FormatRelativeTime(%q): expected '-', got %q", input, got)
		}
	}
}

func TestFormatDateLayouts(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	raw := ts.Format(time.RFC3339)

	if got := FormatDate(raw); got != "2025-03-04 05:06:07" {
		t.Fatalf("unexpected FormatDate: %q", got)
	}
	if got := FormatDateShort(raw); got != "2025-03-04" {
		t.Fatalf("unexpected FormatDateShort: %q", got)
	}
}

func TestParseTimestampWithFraction(t *testing.T) {
	got, ok := ParseTimestamp("2025-01-02T10:11:12.123456Z")
	if !ok {
		t.Fatalf("expected timestamp to parse")
	}
	if got.Nanosecond() != 123456000 {
		t.Fatalf("unexpected nanoseconds: %d", got.Nanosecond())
	}
}

func TestFormatRelativeTime(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	originalNow := now
	now = func() time.Time { return fixed }
	defer func() { now = originalNow }()

	raw := fixed.Add(-5 * time.Minute).Format(time.RFC3339)
	if got := FormatRelativeTime(raw); got != "5 minutes ago" {
		t.Fatalf("unexpected relative time: %q", got)
	}
}
