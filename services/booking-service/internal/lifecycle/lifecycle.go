package lifecycle

import (
	"fmt"
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ReminderLeadTime is how far before the appointment the customer reminder
// fires.
const ReminderLeadTime = time.Hour

// reminderFloor keeps late confirmations from scheduling a reminder in the
// past: it still fires, just a few seconds out.
const reminderFloor = 10 * time.Second

// Effects are the side-effect intents a status transition produces. The
// ledger write is authoritative; these become outbox events in the same
// transaction and are delivered best-effort.
type Effects struct {
	CalendarCreate   bool
	CalendarDelete   bool
	CalendarRetitle  bool
	ConfirmationMail bool
	ScheduleReminder bool
}

var validStatus = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

func ValidStatus(s string) bool {
	return validStatus[s]
}

// Transition validates from→to against the lifecycle graph and returns the
// effects to emit. completed is terminal; cancelled can be reopened to
// confirmed, which re-titles the external calendar event rather than
// recreating it.
func Transition(from, to string) (Effects, error) {
	if !validStatus[to] {
		return Effects{}, fmt.Errorf("unknown status %q", to)
	}
	if !validStatus[from] {
		return Effects{}, fmt.Errorf("unknown status %q", from)
	}
	if from == to {
		return Effects{}, fmt.Errorf("appointment is already %s", to)
	}

	switch {
	case from == StatusPending && to == StatusConfirmed:
		return Effects{
			CalendarCreate:   true,
			ConfirmationMail: true,
			ScheduleReminder: true,
		}, nil
	case from == StatusPending && to == StatusCancelled:
		// Nothing was pushed externally yet.
		return Effects{}, nil
	case from == StatusConfirmed && (to == StatusCompleted || to == StatusCancelled):
		return Effects{CalendarDelete: true}, nil
	case from == StatusCancelled && to == StatusConfirmed:
		return Effects{CalendarRetitle: true}, nil
	default:
		return Effects{}, fmt.Errorf("cannot transition from %s to %s", from, to)
	}
}

// ReminderFireTime returns the absolute instant the pre-appointment reminder
// should fire: one hour before the local start, clamped to shortly after now
// for last-minute confirmations.
func ReminderFireTime(start, now time.Time) time.Time {
	fireAt := start.Add(-ReminderLeadTime)
	if !fireAt.After(now) {
		return now.Add(reminderFloor)
	}
	return fireAt
}
