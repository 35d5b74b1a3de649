package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/jmoss-dev/salonbook/services/booking-service/internal/model"
)

func TestFeed_TokenGate(t *testing.T) {
	h := &Handler{feedToken: "s3cret"}

	rec := httptest.NewRecorder()
	h.Feed(rec, httptest.NewRequest("GET", "/feed.ics?token=wrong", nil))
	if rec.Code != 403 {
		t.Fatalf("wrong token: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Feed(rec, httptest.NewRequest("GET", "/feed.ics", nil))
	if rec.Code != 403 {
		t.Fatalf("missing token: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Feed(rec, httptest.NewRequest("POST", "/feed.ics?token=s3cret", nil))
	if rec.Code != 405 {
		t.Fatalf("POST: got %d, want 405", rec.Code)
	}
}

func TestFeed_DisabledWithoutToken(t *testing.T) {
	h := &Handler{}
	rec := httptest.NewRecorder()
	h.Feed(rec, httptest.NewRequest("GET", "/feed.ics?token=", nil))
	if rec.Code != 404 {
		t.Fatalf("got %d, want 404", rec.Code)
	}
}

func TestInterval_FromSnapshot(t *testing.T) {
	iv, err := interval(model.Appointment{TimeSlot: "02:00 PM", DurationLabel: "4-6 Hours"})
	if err != nil {
		t.Fatalf("interval: %v", err)
	}
	if iv.Start != 14*60 || iv.End != 18*60 {
		t.Fatalf("got [%d, %d), want [840, 1080)", iv.Start, iv.End)
	}
}

func TestInterval_BadSlot(t *testing.T) {
	if _, err := interval(model.Appointment{TimeSlot: "soonish"}); err == nil {
		t.Fatal("expected error for unparseable slot")
	}
}

func TestValidDate(t *testing.T) {
	if !validDate("2026-04-02") {
		t.Fatal("ISO date should be valid")
	}
	for _, bad := range []string{"", "04/02/2026", "2026-13-01", "tomorrow"} {
		if validDate(bad) {
			t.Fatalf("%q should be invalid", bad)
		}
	}
}
