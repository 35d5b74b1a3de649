package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jmoss-dev/salonbook/services/booking-service/internal/availability"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/model"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/storage"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/timeutil"
)

type createAppointmentRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	Notes         string `json:"notes"`
}

type createAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

// Create books an appointment. New bookings always start as pending; the
// operator confirms them explicitly.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.Date = strings.TrimSpace(req.Date)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)

	if req.CustomerName == "" || req.CustomerEmail == "" || req.ServiceID == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}
	if !validDate(req.Date) {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	slotStart, err := timeutil.ParseClock(req.TimeSlot)
	if err != nil {
		http.Error(w, "invalid time_slot", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	blocked, err := h.blocked.IsBlocked(ctx, req.Date)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if blocked {
		http.Error(w, "date is not open for booking", http.StatusUnprocessableEntity)
		return
	}

	svc, err := h.services.Get(ctx, req.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown service", http.StatusBadRequest)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	duration := timeutil.ParseDuration(svc.DurationLabel)
	candidate := availability.Interval{Start: slotStart, End: slotStart + duration}

	// Coarse overlap pre-check against existing bookings. The partial unique
	// index on (date, time_slot) remains the authority for exact-slot races.
	existing, err := h.appts.ListActiveByDate(ctx, req.Date)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	for _, iv := range h.occupied(existing) {
		if candidate.Overlaps(iv) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
	}

	appt := model.Appointment{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		DurationLabel: svc.DurationLabel,
		TotalPrice:    svc.Price,
		Date:          req.Date,
		TimeSlot:      req.TimeSlot,
		Status:        "pending",
		Notes:         strings.TrimSpace(req.Notes),
	}

	start, end, err := h.startEnd(appt)
	if err != nil {
		http.Error(w, "invalid date or time_slot", http.StatusBadRequest)
		return
	}

	tx, err := h.appts.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.appts.Create(ctx, tx, &appt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	appt.ID = id

	if err := h.insertEvent(ctx, tx, id, EventAppointmentRequested, h.appointmentPayload(appt, start, end)); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, createAppointmentResponse{AppointmentID: id, Status: appt.Status})
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// Slots returns the duration-aware availability for a date and service:
// hourly candidates inside business hours that fit the service's duration
// without overlapping an existing booking.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if !validDate(date) || serviceID == "" {
		http.Error(w, "date and service_id are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	blocked, err := h.blocked.IsBlocked(ctx, date)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if blocked {
		writeJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: []string{}})
		return
	}

	svc, err := h.services.Get(ctx, serviceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown service", http.StatusBadRequest)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	existing, err := h.appts.ListActiveByDate(ctx, date)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	starts := availability.Slots(h.avail, timeutil.ParseDuration(svc.DurationLabel), h.occupied(existing))
	slots := make([]string, 0, len(starts))
	for _, s := range starts {
		slots = append(slots, timeutil.FormatClock(s))
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: slots})
}

// ConfigSlots returns the operator-configured coarse slot list for a date:
// per-date override, else defaults, else the built-in fallback. Blocked dates
// return an empty list.
func (h *Handler) ConfigSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if !validDate(date) {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	blocked, err := h.blocked.IsBlocked(ctx, date)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if blocked {
		writeJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: []string{}})
		return
	}

	slots, err := h.slotCfg.SlotsFor(ctx, date)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if slots == nil {
		slots = fallbackSlots
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: slots})
}

type serviceItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	DurationLabel string  `json:"duration_label"`
	Description   string  `json:"description,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	services, err := h.services.List(r.Context())
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	items := make([]serviceItem, 0, len(services))
	for _, svc := range services {
		items = append(items, serviceItem{
			ID:            svc.ID,
			Name:          svc.Name,
			Price:         svc.Price,
			DurationLabel: svc.DurationLabel,
			Description:   svc.Description,
			ImageURL:      svc.ImageURL,
		})
	}
	writeJSON(w, http.StatusOK, items)
}
