package lifecycle

import (
	"testing"
	"time"
)

func TestTransition_ConfirmSchedulesEverything(t *testing.T) {
	eff, err := Transition(StatusPending, StatusConfirmed)
	if err != nil {
		t.Fatalf("pending→confirmed: %v", err)
	}
	if !eff.CalendarCreate || !eff.ConfirmationMail || !eff.ScheduleReminder {
		t.Fatalf("unexpected effects: %+v", eff)
	}
	if eff.CalendarDelete || eff.CalendarRetitle {
		t.Fatalf("unexpected calendar removal effects: %+v", eff)
	}
}

func TestTransition_CancelFromConfirmedDeletesCalendarEvent(t *testing.T) {
	for _, to := range []string{StatusCancelled, StatusCompleted} {
		eff, err := Transition(StatusConfirmed, to)
		if err != nil {
			t.Fatalf("confirmed→%s: %v", to, err)
		}
		if !eff.CalendarDelete {
			t.Fatalf("confirmed→%s should delete the calendar event", to)
		}
		if eff.CalendarCreate || eff.CalendarRetitle || eff.ScheduleReminder {
			t.Fatalf("confirmed→%s unexpected effects: %+v", to, eff)
		}
	}
}

func TestTransition_CancelFromPendingEmitsNothing(t *testing.T) {
	eff, err := Transition(StatusPending, StatusCancelled)
	if err != nil {
		t.Fatalf("pending→cancelled: %v", err)
	}
	if eff != (Effects{}) {
		t.Fatalf("pending→cancelled should emit no intents, got %+v", eff)
	}
}

func TestTransition_ReopenRetitles(t *testing.T) {
	eff, err := Transition(StatusCancelled, StatusConfirmed)
	if err != nil {
		t.Fatalf("cancelled→confirmed: %v", err)
	}
	if !eff.CalendarRetitle || eff.CalendarCreate || eff.CalendarDelete {
		t.Fatalf("reopen should retitle only, got %+v", eff)
	}
}

func TestTransition_Invalid(t *testing.T) {
	cases := []struct{ from, to string }{
		{StatusPending, StatusCompleted},
		{StatusCompleted, StatusConfirmed},
		{StatusCompleted, StatusCancelled},
		{StatusConfirmed, StatusPending},
		{StatusConfirmed, StatusConfirmed},
		{StatusPending, "archived"},
	}
	for _, c := range cases {
		if _, err := Transition(c.from, c.to); err == nil {
			t.Fatalf("%s→%s should be rejected", c.from, c.to)
		}
	}
}

func TestReminderFireTime(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	start := time.Date(2026, 4, 2, 14, 0, 0, 0, loc)

	// Plenty of lead time: fires exactly one hour before.
	now := time.Date(2026, 4, 1, 14, 0, 0, 0, loc)
	if got := ReminderFireTime(start, now); !got.Equal(start.Add(-time.Hour)) {
		t.Fatalf("fire time = %s, want %s", got, start.Add(-time.Hour))
	}

	// Confirmed 30 minutes before start: naive fire time already passed,
	// clamp to now+10s so it still fires.
	now = time.Date(2026, 4, 2, 13, 30, 0, 0, loc)
	if got := ReminderFireTime(start, now); !got.Equal(now.Add(10 * time.Second)) {
		t.Fatalf("clamped fire time = %s, want %s", got, now.Add(10*time.Second))
	}

	// Exactly at the boundary counts as past.
	now = start.Add(-time.Hour)
	if got := ReminderFireTime(start, now); !got.Equal(now.Add(10 * time.Second)) {
		t.Fatalf("boundary fire time = %s, want %s", got, now.Add(10*time.Second))
	}
}
