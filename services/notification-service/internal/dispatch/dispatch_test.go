package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jmoss-dev/salonbook/services/notification-service/internal/email"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/gcal"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/storage"
)

type fakeEmail struct {
	sent []email.Message
	err  error
}

func (f *fakeEmail) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeEmail) ProviderID() string { return "fake" }

type fakeChat struct {
	sent []string
	err  error
}

func (f *fakeChat) Send(_ context.Context, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, body)
	return nil
}

func (f *fakeChat) ProviderID() string { return "fake-chat" }

type fakeCal struct {
	created  []gcal.Event
	restored []gcal.Event
	deleted  []string
}

func (f *fakeCal) Create(_ context.Context, evt gcal.Event) error {
	f.created = append(f.created, evt)
	return nil
}

func (f *fakeCal) Restore(_ context.Context, evt gcal.Event) error {
	f.restored = append(f.restored, evt)
	return nil
}

func (f *fakeCal) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeStore struct {
	rows []storage.Notification
}

func (f *fakeStore) Insert(_ context.Context, n storage.Notification) error {
	f.rows = append(f.rows, n)
	return nil
}

type fakeReporter struct {
	sent   []string
	failed []string
}

func (f *fakeReporter) Sent(_ context.Context, _, channel, _ string) error {
	f.sent = append(f.sent, channel)
	return nil
}

func (f *fakeReporter) Failed(_ context.Context, _, channel, _ string) error {
	f.failed = append(f.failed, channel)
	return nil
}

func testEvent() []byte {
	raw, _ := json.Marshal(map[string]any{
		"appointment_id": "appt-1",
		"customer_name":  "Jane",
		"customer_email": "jane@example.com",
		"service_name":   "Knotless Braids",
		"duration_label": "4-6 Hours",
		"total_price":    180.0,
		"date":           "2026-04-02",
		"time_slot":      "02:00 PM",
		"status":         "confirmed",
		"start_time":     "2026-04-02T18:00:00Z",
		"end_time":       "2026-04-02T22:00:00Z",
	})
	return raw
}

func newTestDispatcher(e *fakeEmail, c *fakeChat, cal *fakeCal, s *fakeStore, r *fakeReporter) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(e, c, cal, s, r, logger, Config{
		BusinessName:  "BraidsByTina",
		OperatorEmail: "tina@example.com",
	})
}

func TestHandle_RequestedSendsAlertsAndAck(t *testing.T) {
	e, c, cal, s, r := &fakeEmail{}, &fakeChat{}, &fakeCal{}, &fakeStore{}, &fakeReporter{}
	d := newTestDispatcher(e, c, cal, s, r)

	if err := d.Handle(context.Background(), "booking.appointment.requested.v1", testEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(e.sent) != 2 {
		t.Fatalf("expected operator alert + customer ack, got %d emails", len(e.sent))
	}
	if e.sent[0].To != "tina@example.com" || e.sent[1].To != "jane@example.com" {
		t.Fatalf("wrong recipients: %s, %s", e.sent[0].To, e.sent[1].To)
	}
	if len(c.sent) != 1 || !strings.Contains(c.sent[0], "Knotless Braids") {
		t.Fatalf("chat alert wrong: %v", c.sent)
	}
	if len(cal.created) != 0 {
		t.Fatal("request must not touch the calendar")
	}
	if len(r.sent) != 3 {
		t.Fatalf("expected 3 sent reports, got %v", r.sent)
	}
}

func TestHandle_ConfirmedSendsInviteAndCreatesEvent(t *testing.T) {
	e, c, cal, s, r := &fakeEmail{}, &fakeChat{}, &fakeCal{}, &fakeStore{}, &fakeReporter{}
	d := newTestDispatcher(e, c, cal, s, r)

	if err := d.Handle(context.Background(), "booking.appointment.confirmed.v1", testEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(e.sent) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(e.sent))
	}
	msg := e.sent[0]
	if !strings.Contains(msg.ICS, "BEGIN:VCALENDAR") || !strings.Contains(msg.ICS, "STATUS:CONFIRMED") {
		t.Fatalf("confirmation must attach a confirmed invite:\n%s", msg.ICS)
	}
	if !strings.Contains(msg.Body, "calendar.google.com") {
		t.Fatal("confirmation body must carry the add-to-calendar link")
	}
	if len(cal.created) != 1 || cal.created[0].AppointmentID != "appt-1" {
		t.Fatalf("calendar create wrong: %+v", cal.created)
	}
}

func TestHandle_ClosedDeletesCalendarEventOnce(t *testing.T) {
	e, c, cal, s, r := &fakeEmail{}, &fakeChat{}, &fakeCal{}, &fakeStore{}, &fakeReporter{}
	d := newTestDispatcher(e, c, cal, s, r)

	if err := d.Handle(context.Background(), "booking.appointment.closed.v1", testEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(cal.deleted) != 1 || cal.deleted[0] != "appt-1" {
		t.Fatalf("expected exactly one calendar deletion, got %v", cal.deleted)
	}
	if len(e.sent) != 0 || len(c.sent) != 0 {
		t.Fatal("closing must not email or chat")
	}
}

func TestHandle_ReopenedRestoresInsteadOfRecreating(t *testing.T) {
	e, c, cal, s, r := &fakeEmail{}, &fakeChat{}, &fakeCal{}, &fakeStore{}, &fakeReporter{}
	d := newTestDispatcher(e, c, cal, s, r)

	if err := d.Handle(context.Background(), "booking.appointment.reopened.v1", testEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(cal.restored) != 1 {
		t.Fatalf("expected restore, got %+v", cal)
	}
	if len(cal.created) != 0 || len(cal.deleted) != 0 {
		t.Fatalf("reopen must not create or delete: %+v", cal)
	}
}

func TestHandle_ReminderDueEmailsRecipient(t *testing.T) {
	e, c, cal, s, r := &fakeEmail{}, &fakeChat{}, &fakeCal{}, &fakeStore{}, &fakeReporter{}
	d := newTestDispatcher(e, c, cal, s, r)

	raw, _ := json.Marshal(map[string]any{
		"appointment_id": "appt-1",
		"recipient":      "jane@example.com",
		"customer_name":  "Jane",
		"service_name":   "Knotless Braids",
		"date":           "2026-04-02",
		"time_slot":      "02:00 PM",
	})
	if err := d.Handle(context.Background(), "scheduler.reminder.due.v1", raw); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(e.sent) != 1 || e.sent[0].To != "jane@example.com" {
		t.Fatalf("reminder email wrong: %+v", e.sent)
	}
	if !strings.Contains(e.sent[0].Subject, "Reminder") {
		t.Fatalf("subject = %q", e.sent[0].Subject)
	}
}

func TestHandle_EmailFailureIsRecordedNotPropagated(t *testing.T) {
	e := &fakeEmail{err: errors.New("smtp down")}
	c, cal, s, r := &fakeChat{}, &fakeCal{}, &fakeStore{}, &fakeReporter{}
	d := newTestDispatcher(e, c, cal, s, r)

	if err := d.Handle(context.Background(), "booking.appointment.requested.v1", testEvent()); err != nil {
		t.Fatalf("send failures must not bubble up: %v", err)
	}

	failed := 0
	for _, row := range s.rows {
		if row.Channel == "email" && row.Status == "failed" {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("expected both email attempts recorded as failed, got %d", failed)
	}
	if len(r.failed) != 2 {
		t.Fatalf("expected 2 failed reports, got %v", r.failed)
	}
	// Chat still goes out even though email is down.
	if len(c.sent) != 1 {
		t.Fatal("chat alert should still be delivered")
	}
}

func TestHandle_MalformedPayloadIsDropped(t *testing.T) {
	e, c, cal, s, r := &fakeEmail{}, &fakeChat{}, &fakeCal{}, &fakeStore{}, &fakeReporter{}
	d := newTestDispatcher(e, c, cal, s, r)

	if err := d.Handle(context.Background(), "booking.appointment.requested.v1", []byte("{not json")); err != nil {
		t.Fatalf("malformed payload should be dropped, not retried: %v", err)
	}
	if len(e.sent) != 0 && len(c.sent) != 0 {
		t.Fatal("nothing should be sent")
	}
}
