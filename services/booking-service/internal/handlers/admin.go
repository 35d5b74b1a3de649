package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/lifecycle"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/model"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/storage"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/timeutil"
)

type updateStatusRequest struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type updateStatusResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

// UpdateStatus moves an appointment through the lifecycle graph. The row
// update and the side-effect intents commit in one transaction; downstream
// delivery failures never roll the status back.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.AppointmentID == "" || req.Status == "" {
		http.Error(w, "appointment_id and status required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appts.GetForUpdate(ctx, tx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	effects, err := lifecycle.Transition(appt.Status, req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := h.appts.SetStatus(ctx, tx, appt.ID, req.Status); err != nil {
		// Reopening can collide with a booking that took the slot meanwhile.
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}
	appt.Status = req.Status

	if err := h.emitTransitionEvents(ctx, tx, appt, effects); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updateStatusResponse{AppointmentID: appt.ID, Status: appt.Status})
}

func (h *Handler) emitTransitionEvents(ctx context.Context, tx pgx.Tx, appt model.Appointment, effects lifecycle.Effects) error {
	start, end, err := h.startEnd(appt)
	if err != nil {
		return err
	}
	payload := h.appointmentPayload(appt, start, end)

	if effects.CalendarCreate {
		if err := h.insertEvent(ctx, tx, appt.ID, EventAppointmentConfirmed, payload); err != nil {
			return err
		}
	}
	if effects.ScheduleReminder {
		remindAt := lifecycle.ReminderFireTime(start, h.now())
		reminder := map[string]any{
			"appointment_id":  appt.ID,
			"idempotency_key": "reminder:" + appt.ID,
			"recipient":       appt.CustomerEmail,
			"remind_at":       remindAt.UTC().Format(time.RFC3339),
			"customer_name":   appt.CustomerName,
			"service_name":    appt.ServiceName,
			"date":            appt.Date,
			"time_slot":       appt.TimeSlot,
			"start_time":      start.UTC().Format(time.RFC3339),
		}
		if err := h.insertEvent(ctx, tx, appt.ID, EventReminderRequested, reminder); err != nil {
			return err
		}
	}
	if effects.CalendarDelete {
		if err := h.insertEvent(ctx, tx, appt.ID, EventAppointmentClosed, payload); err != nil {
			return err
		}
	}
	if effects.CalendarRetitle {
		if err := h.insertEvent(ctx, tx, appt.ID, EventAppointmentReopened, payload); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the row outright. A confirmed appointment still has an
// external calendar event, so the revocation intent goes out with the delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		AppointmentID string `json:"appointment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appts.GetForUpdate(ctx, tx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.Status == lifecycle.StatusConfirmed {
		start, end, err := h.startEnd(appt)
		if err == nil {
			if err := h.insertEvent(ctx, tx, appt.ID, EventAppointmentDeleted, h.appointmentPayload(appt, start, end)); err != nil {
				http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
				return
			}
		}
	}

	if err := h.appts.Delete(ctx, tx, appt.ID); err != nil {
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type appointmentItem struct {
	AppointmentID string  `json:"appointment_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone,omitempty"`
	ServiceName   string  `json:"service_name"`
	DurationLabel string  `json:"duration_label"`
	TotalPrice    float64 `json:"total_price"`
	Date          string  `json:"date"`
	TimeSlot      string  `json:"time_slot"`
	Status        string  `json:"status"`
	Notes         string  `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// ListAppointments serves the admin dashboard: all rows date-descending, or
// one date's active rows in slot order when ?date= is given.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		appts []model.Appointment
		err   error
	)
	if date := strings.TrimSpace(r.URL.Query().Get("date")); date != "" {
		if !validDate(date) {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		appts, err = h.appts.ListActiveByDate(r.Context(), date)
	} else {
		limit := 200
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		appts, err = h.appts.ListAll(r.Context(), limit)
	}
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, appointmentItem{
			AppointmentID: appt.ID,
			CustomerName:  appt.CustomerName,
			CustomerEmail: appt.CustomerEmail,
			CustomerPhone: appt.CustomerPhone,
			ServiceName:   appt.ServiceName,
			DurationLabel: appt.DurationLabel,
			TotalPrice:    appt.TotalPrice,
			Date:          appt.Date,
			TimeSlot:      appt.TimeSlot,
			Status:        appt.Status,
			Notes:         appt.Notes,
			CreatedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type blockDateRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

func (h *Handler) BlockDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req blockDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	if !validDate(req.Date) {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if err := h.blocked.Block(r.Context(), req.Date, strings.TrimSpace(req.Reason)); err != nil {
		http.Error(w, "failed to block date", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UnblockDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req blockDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	if !validDate(req.Date) {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if err := h.blocked.Unblock(r.Context(), req.Date); err != nil {
		http.Error(w, "failed to unblock date", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListBlockedDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dates, err := h.blocked.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list blocked dates", http.StatusInternalServerError)
		return
	}
	type item struct {
		Date   string `json:"date"`
		Reason string `json:"reason,omitempty"`
	}
	items := make([]item, 0, len(dates))
	for _, d := range dates {
		items = append(items, item{Date: d.Date, Reason: d.Reason})
	}
	writeJSON(w, http.StatusOK, items)
}

type slotConfigRequest struct {
	Date  string   `json:"date,omitempty"`
	Slots []string `json:"slots"`
}

// SetSlotConfig writes the default slot list (no date) or a per-date
// override. An override with an empty slots array clears the override.
func (h *Handler) SetSlotConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req slotConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	for _, s := range req.Slots {
		if _, err := timeutil.ParseClock(s); err != nil {
			http.Error(w, "invalid slot "+strconv.Quote(s), http.StatusBadRequest)
			return
		}
	}

	req.Date = strings.TrimSpace(req.Date)
	ctx := r.Context()
	switch {
	case req.Date == "":
		if len(req.Slots) == 0 {
			http.Error(w, "slots required", http.StatusBadRequest)
			return
		}
		if err := h.slotCfg.SetDefaults(ctx, req.Slots); err != nil {
			http.Error(w, "failed to set default slots", http.StatusInternalServerError)
			return
		}
	case !validDate(req.Date):
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	case len(req.Slots) == 0:
		if err := h.slotCfg.ClearOverride(ctx, req.Date); err != nil {
			http.Error(w, "failed to clear override", http.StatusInternalServerError)
			return
		}
	default:
		if err := h.slotCfg.SetOverride(ctx, req.Date, req.Slots); err != nil {
			http.Error(w, "failed to set override", http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type createServiceRequest struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	DurationLabel string  `json:"duration_label"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"image_url"`
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price < 0 {
		http.Error(w, "name required and price must be non-negative", http.StatusBadRequest)
		return
	}
	svc := model.Service{
		Name:          req.Name,
		Price:         req.Price,
		DurationLabel: strings.TrimSpace(req.DurationLabel),
		Description:   strings.TrimSpace(req.Description),
		ImageURL:      strings.TrimSpace(req.ImageURL),
	}
	id, err := h.services.Create(r.Context(), &svc)
	if err != nil {
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}
