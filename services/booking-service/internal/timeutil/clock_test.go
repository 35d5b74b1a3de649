package timeutil

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"12:00 AM", 0},
		{"09:00 AM", 9 * 60},
		{"12:00 PM", 12 * 60},
		{"02:00 PM", 14 * 60},
		{"11:59 PM", 23*60 + 59},
		{"12:30 am", 30},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseClock(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseClock_Malformed(t *testing.T) {
	for _, in := range []string{"", "14:00", "2 PM", "ab:cd PM", "13:00 PM", "09:61 AM", "09:00 XM"} {
		if _, err := ParseClock(in); err == nil {
			t.Fatalf("ParseClock(%q) should fail", in)
		}
	}
}

func TestFormatClock_RoundTrip(t *testing.T) {
	for _, slot := range []string{"09:00 AM", "12:00 AM", "12:00 PM", "11:59 PM", "01:30 PM"} {
		minutes, err := ParseClock(slot)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", slot, err)
		}
		if got := FormatClock(minutes); got != slot {
			t.Fatalf("FormatClock(ParseClock(%q)) = %q", slot, got)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"4-6 Hours", 240},
		{"90 min", 90},
		{"1.5 hours", 90},
		{"2 hrs", 120},
		{"45 Minutes", 45},
		{"garbage", 120},
		{"", 120},
		{"3", 120}, // number without a unit keeps the default
	}
	for _, c := range cases {
		if got := ParseDuration(c.in); got != c.want {
			t.Fatalf("ParseDuration(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAt(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	got, err := At("2026-03-14", "02:00 PM", loc)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	want := time.Date(2026, 3, 14, 14, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("At = %s, want %s", got, want)
	}

	if _, err := At("03/14/2026", "02:00 PM", loc); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
	if _, err := At("2026-03-14", "14:00", loc); err == nil {
		t.Fatal("expected error for 24-hour slot")
	}
}
