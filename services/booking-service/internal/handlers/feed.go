package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/jmoss-dev/salonbook/libs/ical"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/lifecycle"
)

// Feed serves the iCal subscription: every non-cancelled appointment as a
// VEVENT, gated by a shared-secret token compared in constant time.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.feedToken == "" {
		http.Error(w, "feed disabled", http.StatusNotFound)
		return
	}
	token := r.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.feedToken)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	appts, err := h.appts.ListActive(r.Context())
	if err != nil {
		http.Error(w, "failed to load appointments", http.StatusInternalServerError)
		return
	}

	cal := ical.Calendar{Name: "Salon Bookings"}
	for _, appt := range appts {
		start, end, err := h.startEnd(appt)
		if err != nil {
			h.logger.Warn("skipping feed entry with unparseable slot", "appointment_id", appt.ID)
			continue
		}
		status := "TENTATIVE"
		if appt.Status == lifecycle.StatusConfirmed {
			status = "CONFIRMED"
		}
		cal.Events = append(cal.Events, ical.Event{
			UID:         appt.ID + "@salonbook",
			Start:       start,
			End:         end,
			Summary:     appt.ServiceName + " - " + appt.CustomerName,
			Description: appt.Notes,
			Status:      status,
		})
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.ics"`)
	_, _ = w.Write([]byte(cal.Render()))
}
