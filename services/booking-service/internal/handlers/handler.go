package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoss-dev/salonbook/libs/outbox"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/availability"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/model"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/storage"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/timeutil"
)

// fallbackSlots is the built-in coarse slot list used when the operator has
// configured neither defaults nor a per-date override.
var fallbackSlots = []string{"09:00 AM", "10:00 AM", "12:00 PM", "02:00 PM", "04:00 PM"}

type Handler struct {
	appts     *storage.AppointmentRepository
	services  *storage.ServiceRepository
	blocked   *storage.BlockedDateRepository
	slotCfg   *storage.SlotConfigRepository
	outbox    *outbox.Repository
	logger    *slog.Logger
	avail     availability.Config
	loc       *time.Location
	feedToken string
	now       func() time.Time
}

type Config struct {
	Availability availability.Config
	Location     *time.Location
	FeedToken    string
}

func New(appts *storage.AppointmentRepository, services *storage.ServiceRepository, blocked *storage.BlockedDateRepository, slotCfg *storage.SlotConfigRepository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg Config) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Handler{
		appts:     appts,
		services:  services,
		blocked:   blocked,
		slotCfg:   slotCfg,
		outbox:    outboxRepo,
		logger:    logger,
		avail:     cfg.Availability,
		loc:       cfg.Location,
		feedToken: cfg.FeedToken,
		now:       time.Now,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// interval returns the minute range the appointment occupies, derived from
// its own snapshotted slot and duration label.
func interval(appt model.Appointment) (availability.Interval, error) {
	start, err := timeutil.ParseClock(appt.TimeSlot)
	if err != nil {
		return availability.Interval{}, err
	}
	return availability.Interval{
		Start: start,
		End:   start + timeutil.ParseDuration(appt.DurationLabel),
	}, nil
}

func (h *Handler) occupied(appts []model.Appointment) []availability.Interval {
	out := make([]availability.Interval, 0, len(appts))
	for _, appt := range appts {
		iv, err := interval(appt)
		if err != nil {
			h.logger.Warn("skipping appointment with unparseable slot", "appointment_id", appt.ID, "time_slot", appt.TimeSlot)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// startEnd converts the appointment's date and slot into absolute instants in
// the business time zone.
func (h *Handler) startEnd(appt model.Appointment) (time.Time, time.Time, error) {
	start, err := timeutil.At(appt.Date, appt.TimeSlot, h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start.Add(time.Duration(timeutil.ParseDuration(appt.DurationLabel)) * time.Minute)
	return start, end, nil
}

func validDate(date string) bool {
	_, err := time.Parse(timeutil.DateLayout, date)
	return err == nil
}
