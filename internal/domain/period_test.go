package domain

import (
	"testing"
	"time"
)

func TestNewPeriodWindow(t *testing.T) {
	window, err := NewPeriodWindow("2025-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.Start.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", window.Start)
	}
	if !window.End.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %v", window.End)
	}

	if !window.Contains(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("window start must be inclusive")
	}
	if !window.Contains(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)) {
		t.Fatal("last day of the month must be inside the window")
	}
	if window.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("window end must be exclusive")
	}
	if window.Contains(time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("previous month must be outside the window")
	}
}

func TestNewPeriodWindowRejectsBadTokens(t *testing.T) {
	for _, bad := range []string{"", "2025", "2025-13", "December 2025", "2025-12-01"} {
		if _, err := NewPeriodWindow(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
