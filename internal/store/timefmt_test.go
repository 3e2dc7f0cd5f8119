package store

import (
	"testing"
	"time"
)

func TestParseDBTime(t *testing.T) {
	// Canonical zoned form
	got, err := parseDBTime("2026-03-10T09:30:00Z")
	if err != nil {
		t.Fatalf("parseDBTime failed: %v", err)
	}
	want := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// Legacy naive form reads as UTC
	got, err = parseDBTime("2026-03-10 09:30:00")
	if err != nil {
		t.Fatalf("parseDBTime failed: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("Legacy form should parse as UTC: expected %v, got %v", want, got)
	}

	// Garbage is an error
	if _, err := parseDBTime("next tuesday"); err == nil {
		t.Error("Expected error for unparseable timestamp")
	}
}

func TestFormatTimeRoundTrip(t *testing.T) {
	in := time.Date(2026, 3, 10, 9, 30, 15, 987654321, time.UTC)
	out, err := parseDBTime(formatTime(in))
	if err != nil {
		t.Fatalf("parseDBTime failed: %v", err)
	}
	// Sub-second precision is dropped on write
	if !out.Equal(in.Truncate(time.Second)) {
		t.Errorf("Expected %v, got %v", in.Truncate(time.Second), out)
	}
}
