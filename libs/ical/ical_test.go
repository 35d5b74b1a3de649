package ical

import (
	"strings"
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	cal := Calendar{
		Name: "Salon Bookings",
		Events: []Event{{
			UID:     "abc-123@salonbook",
			Start:   time.Date(2026, 4, 2, 14, 0, 0, 0, loc),
			End:     time.Date(2026, 4, 2, 16, 0, 0, 0, loc),
			Summary: "Knotless Braids; Jane",
			Status:  "CONFIRMED",
		}},
	}
	out := cal.Render()

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:abc-123@salonbook",
		"DTSTART:20260402T190000Z", // EST converted to UTC
		"DTEND:20260402T210000Z",
		`SUMMARY:Knotless Braids\; Jane`,
		"STATUS:CONFIRMED",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "END:VCALENDAR\r\n") {
		t.Fatal("calendar must end with CRLF")
	}
	if strings.Contains(out, "\n\n") {
		t.Fatal("unexpected blank line")
	}
}

func TestEscape(t *testing.T) {
	cases := map[string]string{
		"a,b":      `a\,b`,
		"a;b":      `a\;b`,
		"a\nb":     `a\nb`,
		`back\one`: `back\\one`,
		"plain":    "plain",
	}
	for in, want := range cases {
		if got := Escape(in); got != want {
			t.Fatalf("Escape(%q) = %q, want %q", in, got, want)
		}
	}
}
