package timeutil

import (
	"testing"
	"time"
)

func TestDayInCrossesMidnight(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:30 UTC on March 1 is already March 2 in Tokyo.
	instant := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	if got := DayIn(instant, tokyo); got != "2026-03-02" {
		t.Fatalf("expected 2026-03-02, got %s", got)
	}
	if got := DayIn(instant, time.UTC); got != "2026-03-01" {
		t.Fatalf("expected 2026-03-01, got %s", got)
	}
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2026-03-01", "2026-03-02", 1},
		{"2026-03-01", "2026-03-01", 0},
		{"2026-02-28", "2026-03-01", 1},
		{"2026-03-05", "2026-03-01", -4},
		{"bogus", "2026-03-01", 0},
	}
	for _, tc := range cases {
		if got := DaysBetween(tc.a, tc.b); got != tc.want {
			t.Errorf("DaysBetween(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestAfterDay(t *testing.T) {
	if !AfterDay("2026-03-02", "2026-03-01") {
		t.Fatal("2026-03-02 should be after 2026-03-01")
	}
	if AfterDay("2026-03-01", "2026-03-01") {
		t.Fatal("a day is not after itself")
	}
}
