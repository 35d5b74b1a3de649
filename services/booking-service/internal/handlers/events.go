package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jmoss-dev/salonbook/libs/outbox"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/model"
)

// Event types emitted by this service. Topic name equals event type.
const (
	EventAppointmentRequested = "booking.appointment.requested.v1"
	EventAppointmentConfirmed = "booking.appointment.confirmed.v1"
	EventAppointmentClosed    = "booking.appointment.closed.v1"
	EventAppointmentReopened  = "booking.appointment.reopened.v1"
	EventAppointmentDeleted   = "booking.appointment.deleted.v1"
	EventReminderRequested    = "booking.reminder.requested.v1"
)

// appointmentPayload carries everything downstream consumers need, including
// absolute start/end instants so no consumer has to re-parse slot strings.
func (h *Handler) appointmentPayload(appt model.Appointment, start, end time.Time) map[string]any {
	return map[string]any{
		"appointment_id": appt.ID,
		"customer_name":  appt.CustomerName,
		"customer_email": appt.CustomerEmail,
		"customer_phone": appt.CustomerPhone,
		"service_name":   appt.ServiceName,
		"duration_label": appt.DurationLabel,
		"total_price":    appt.TotalPrice,
		"date":           appt.Date,
		"time_slot":      appt.TimeSlot,
		"status":         appt.Status,
		"notes":          appt.Notes,
		"start_time":     start.UTC().Format(time.RFC3339),
		"end_time":       end.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) insertEvent(ctx context.Context, tx pgx.Tx, appointmentID, eventType string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appointmentID,
		EventType:     eventType,
		Payload:       body,
	})
}
