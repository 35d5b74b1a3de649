// Package dispatch routes booking and scheduler events to their side
// effects: emails, the chat-group alert, and Google Calendar sync. The ledger
// has already committed by the time events arrive here, so everything is
// best-effort: failures are recorded and reported, never propagated back.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoss-dev/salonbook/libs/ical"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/chat"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/email"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/gcal"
	"github.com/jmoss-dev/salonbook/services/notification-service/internal/storage"
)

// Event is the shared shape of the appointment payloads booking-service
// emits. Reminder events carry a subset plus recipient.
type Event struct {
	AppointmentID string  `json:"appointment_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone"`
	ServiceName   string  `json:"service_name"`
	DurationLabel string  `json:"duration_label"`
	TotalPrice    float64 `json:"total_price"`
	Date          string  `json:"date"`
	TimeSlot      string  `json:"time_slot"`
	Status        string  `json:"status"`
	Notes         string  `json:"notes"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Recipient     string  `json:"recipient"`
}

type Recorder interface {
	Insert(ctx context.Context, n storage.Notification) error
}

// Reporter publishes the notification.sent.v1 / notification.failed.v1
// follow-up events.
type Reporter interface {
	Sent(ctx context.Context, appointmentID, channel, providerID string) error
	Failed(ctx context.Context, appointmentID, channel, reason string) error
}

type Config struct {
	BusinessName  string
	OperatorEmail string
}

type Dispatcher struct {
	email  email.Sender
	chat   chat.Sender
	cal    gcal.Syncer
	store  Recorder
	report Reporter
	logger *slog.Logger
	cfg    Config
}

func New(emailSender email.Sender, chatSender chat.Sender, calSyncer gcal.Syncer, store Recorder, report Reporter, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.BusinessName == "" {
		cfg.BusinessName = "salonbook"
	}
	return &Dispatcher{
		email:  emailSender,
		chat:   chatSender,
		cal:    calSyncer,
		store:  store,
		report: report,
		logger: logger,
		cfg:    cfg,
	}
}

// Handle processes one consumed event. A nil return means the message is
// done; per-effect failures inside are isolated so one bad channel never
// blocks the others or forces a redelivery that would duplicate them.
func (d *Dispatcher) Handle(ctx context.Context, eventType string, payload []byte) error {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		d.logger.Error("invalid event payload", "event_type", eventType, "err", err)
		return nil
	}
	if evt.AppointmentID == "" {
		d.logger.Error("event missing appointment_id", "event_type", eventType)
		return nil
	}

	switch eventType {
	case "booking.appointment.requested.v1":
		d.handleRequested(ctx, evt)
	case "booking.appointment.confirmed.v1":
		d.handleConfirmed(ctx, evt)
	case "booking.appointment.reopened.v1":
		d.handleReopened(ctx, evt)
	case "booking.appointment.closed.v1", "booking.appointment.deleted.v1":
		d.handleClosed(ctx, evt)
	case "scheduler.reminder.due.v1":
		d.handleReminderDue(ctx, evt)
	default:
		d.logger.Warn("unhandled event type", "event_type", eventType)
	}
	return nil
}

func (d *Dispatcher) handleRequested(ctx context.Context, evt Event) {
	data := d.templateData(evt)

	if d.cfg.OperatorEmail != "" {
		subject, body := email.OperatorAlert(data)
		d.sendEmail(ctx, evt, d.cfg.OperatorEmail, subject, body, "")
	}
	if evt.CustomerEmail != "" {
		subject, body := email.RequestReceived(data)
		d.sendEmail(ctx, evt, evt.CustomerEmail, subject, body, "")
	}

	alert := fmt.Sprintf("New booking request: %s - %s on %s at %s",
		evt.CustomerName, evt.ServiceName, evt.Date, evt.TimeSlot)
	if err := d.chat.Send(ctx, alert); err != nil {
		d.logger.Error("chat alert failed", "appointment_id", evt.AppointmentID, "err", err)
		d.record(ctx, evt, "chat", "", "", "failed", err.Error())
		d.reportFailed(ctx, evt.AppointmentID, "chat", err.Error())
		return
	}
	d.record(ctx, evt, "chat", "", "", "sent", "")
	d.reportSent(ctx, evt.AppointmentID, "chat", d.chat.ProviderID())
}

func (d *Dispatcher) handleConfirmed(ctx context.Context, evt Event) {
	start, end, timesOK := d.times(evt)

	if evt.CustomerEmail != "" {
		data := d.templateData(evt)
		var ics string
		if timesOK {
			data.GCalLink = email.GoogleCalendarLink(d.summary(evt), start, end)
			ics = ical.Calendar{
				ProdID: "-//salonbook//confirmation//EN",
				Events: []ical.Event{{
					UID:     evt.AppointmentID + "@salonbook",
					Start:   start,
					End:     end,
					Summary: d.summary(evt),
					Status:  "CONFIRMED",
				}},
			}.Render()
		}
		subject, body := email.Confirmation(data)
		d.sendEmail(ctx, evt, evt.CustomerEmail, subject, body, ics)
	}

	if !timesOK {
		d.logger.Error("skipping calendar create: bad times", "appointment_id", evt.AppointmentID)
		return
	}
	err := d.cal.Create(ctx, gcal.Event{
		AppointmentID: evt.AppointmentID,
		Summary:       d.summary(evt),
		Description:   d.description(evt),
		Start:         start,
		End:           end,
	})
	d.recordCalendar(ctx, evt, "create", err)
}

func (d *Dispatcher) handleReopened(ctx context.Context, evt Event) {
	start, end, ok := d.times(evt)
	if !ok {
		d.logger.Error("skipping calendar restore: bad times", "appointment_id", evt.AppointmentID)
		return
	}
	err := d.cal.Restore(ctx, gcal.Event{
		AppointmentID: evt.AppointmentID,
		Summary:       d.summary(evt),
		Description:   d.description(evt),
		Start:         start,
		End:           end,
	})
	d.recordCalendar(ctx, evt, "restore", err)
}

func (d *Dispatcher) handleClosed(ctx context.Context, evt Event) {
	err := d.cal.Delete(ctx, evt.AppointmentID)
	d.recordCalendar(ctx, evt, "delete", err)
}

func (d *Dispatcher) handleReminderDue(ctx context.Context, evt Event) {
	to := evt.Recipient
	if to == "" {
		to = evt.CustomerEmail
	}
	if to == "" {
		d.logger.Error("reminder without recipient", "appointment_id", evt.AppointmentID)
		return
	}
	subject, body := email.Reminder(d.templateData(evt))
	d.sendEmail(ctx, evt, to, subject, body, "")
}

func (d *Dispatcher) sendEmail(ctx context.Context, evt Event, to, subject, body, ics string) {
	err := d.email.Send(ctx, email.Message{To: to, Subject: subject, Body: body, ICS: ics})
	if err != nil {
		d.logger.Error("email send failed", "appointment_id", evt.AppointmentID, "recipient", to, "err", err)
		d.record(ctx, evt, "email", to, subject, "failed", err.Error())
		d.reportFailed(ctx, evt.AppointmentID, "email", err.Error())
		return
	}
	d.record(ctx, evt, "email", to, subject, "sent", "")
	d.reportSent(ctx, evt.AppointmentID, "email", d.email.ProviderID())
}

func (d *Dispatcher) recordCalendar(ctx context.Context, evt Event, op string, err error) {
	if err != nil {
		d.logger.Error("calendar sync failed", "op", op, "appointment_id", evt.AppointmentID, "err", err)
		d.record(ctx, evt, "calendar", "", op, "failed", err.Error())
		d.reportFailed(ctx, evt.AppointmentID, "calendar", err.Error())
		return
	}
	d.record(ctx, evt, "calendar", "", op, "sent", "")
	d.reportSent(ctx, evt.AppointmentID, "calendar", "gcal")
}

func (d *Dispatcher) record(ctx context.Context, evt Event, channel, recipient, subject, status, reason string) {
	err := d.store.Insert(ctx, storage.Notification{
		AppointmentID: evt.AppointmentID,
		Channel:       channel,
		Recipient:     recipient,
		Subject:       subject,
		Payload: map[string]any{
			"service_name": evt.ServiceName,
			"date":         evt.Date,
			"time_slot":    evt.TimeSlot,
		},
		Status:      status,
		ErrorReason: reason,
	})
	if err != nil {
		d.logger.Error("failed to persist notification", "appointment_id", evt.AppointmentID, "channel", channel, "err", err)
	}
}

func (d *Dispatcher) reportSent(ctx context.Context, appointmentID, channel, providerID string) {
	if err := d.report.Sent(ctx, appointmentID, channel, providerID); err != nil {
		d.logger.Error("failed to enqueue notification.sent", "appointment_id", appointmentID, "err", err)
	}
}

func (d *Dispatcher) reportFailed(ctx context.Context, appointmentID, channel, reason string) {
	if err := d.report.Failed(ctx, appointmentID, channel, reason); err != nil {
		d.logger.Error("failed to enqueue notification.failed", "appointment_id", appointmentID, "err", err)
	}
}

func (d *Dispatcher) templateData(evt Event) email.TemplateData {
	return email.TemplateData{
		BusinessName: d.cfg.BusinessName,
		CustomerName: evt.CustomerName,
		ServiceName:  evt.ServiceName,
		Date:         evt.Date,
		TimeSlot:     evt.TimeSlot,
		Duration:     evt.DurationLabel,
		Price:        evt.TotalPrice,
		Notes:        evt.Notes,
		Phone:        evt.CustomerPhone,
	}
}

func (d *Dispatcher) summary(evt Event) string {
	return evt.ServiceName + " - " + evt.CustomerName
}

func (d *Dispatcher) description(evt Event) string {
	desc := fmt.Sprintf("Customer: %s\nService: %s\nDuration: %s\nPrice: $%.2f",
		evt.CustomerName, evt.ServiceName, evt.DurationLabel, evt.TotalPrice)
	if evt.CustomerPhone != "" {
		desc += "\nPhone: " + evt.CustomerPhone
	}
	if evt.Notes != "" {
		desc += "\nNotes: " + evt.Notes
	}
	return desc
}

func (d *Dispatcher) times(evt Event) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, evt.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, evt.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
