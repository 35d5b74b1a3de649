package availability

import (
	"testing"

	"github.com/jmoss-dev/salonbook/services/booking-service/internal/timeutil"
)

func formatAll(t *testing.T, minutes []int) []string {
	t.Helper()
	out := make([]string, 0, len(minutes))
	for _, m := range minutes {
		out = append(out, timeutil.FormatClock(m))
	}
	return out
}

func TestSlots_EmptyDay(t *testing.T) {
	slots := Slots(DefaultConfig(), 60, nil)
	// 09:00 through 17:00 inclusive, one per hour.
	if len(slots) != 9 {
		t.Fatalf("expected 9 slots, got %d: %v", len(slots), formatAll(t, slots))
	}
	if slots[0] != 9*60 || slots[len(slots)-1] != 17*60 {
		t.Fatalf("unexpected bounds: %v", formatAll(t, slots))
	}
}

func TestSlots_ExcludesOccupiedOverlap(t *testing.T) {
	// Existing appointment at 10:00 AM for 120 minutes occupies 10:00-12:00.
	occupied := []Interval{{Start: 10 * 60, End: 12 * 60}}

	got := formatAll(t, Slots(DefaultConfig(), 60, occupied))
	want := []string{"09:00 AM", "12:00 PM", "01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSlots_LongBookingMustFitBeforeClose(t *testing.T) {
	// A 4-hour booking can start no later than 2 PM.
	slots := Slots(DefaultConfig(), 240, nil)
	if len(slots) == 0 {
		t.Fatal("expected some slots")
	}
	if last := slots[len(slots)-1]; last != 14*60 {
		t.Fatalf("last slot = %s, want 02:00 PM", timeutil.FormatClock(last))
	}
}

func TestSlots_DurationExceedsWindow(t *testing.T) {
	if slots := Slots(DefaultConfig(), 10*60, nil); len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", formatAll(t, slots))
	}
}

func TestSlots_AdjacentBookingsDoNotBlock(t *testing.T) {
	// Half-open intervals: a booking ending at 11:00 does not block an 11:00 start.
	occupied := []Interval{{Start: 10 * 60, End: 11 * 60}}
	for _, s := range Slots(DefaultConfig(), 60, occupied) {
		if s == 10*60 {
			t.Fatal("10:00 AM should be excluded")
		}
	}
	found := false
	for _, s := range Slots(DefaultConfig(), 60, occupied) {
		if s == 11*60 {
			found = true
		}
	}
	if !found {
		t.Fatal("11:00 AM should be available")
	}
}
