package email

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestBuildMessage_PlainWithoutICS(t *testing.T) {
	raw := buildMessage("no-reply@salonbook.local", Message{
		To:      "jane@example.com",
		Subject: "Hello",
		Body:    "plain body",
	})
	if strings.Contains(raw, "multipart/mixed") {
		t.Fatal("plain message must not be multipart")
	}
	if !strings.Contains(raw, "Subject: Hello") || !strings.Contains(raw, "plain body") {
		t.Fatalf("message malformed:\n%s", raw)
	}
}

func TestBuildMessage_AttachesICS(t *testing.T) {
	ics := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	raw := buildMessage("no-reply@salonbook.local", Message{
		To:      "jane@example.com",
		Subject: "Confirmed",
		Body:    "see attachment",
		ICS:     ics,
	})
	if !strings.Contains(raw, "multipart/mixed") {
		t.Fatal("expected multipart message")
	}
	if !strings.Contains(raw, `filename="appointment.ics"`) {
		t.Fatal("attachment disposition missing")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(ics))
	if !strings.Contains(raw, encoded) {
		t.Fatal("base64 calendar payload missing")
	}
}

func TestTemplates_Subjects(t *testing.T) {
	d := TemplateData{
		BusinessName: "BraidsByTina",
		CustomerName: "Jane",
		ServiceName:  "Knotless Braids",
		Date:         "2026-04-02",
		TimeSlot:     "02:00 PM",
		Price:        180,
	}

	if subj, _ := OperatorAlert(d); subj != "New Appointment Request - Jane" {
		t.Fatalf("operator subject = %q", subj)
	}
	if subj, body := RequestReceived(d); subj != "Appointment Request Received - BraidsByTina" || !strings.Contains(body, "not confirmed yet") {
		t.Fatalf("request-received mail wrong: %q", subj)
	}
	if _, body := Confirmation(d); !strings.Contains(body, "confirmed") || !strings.Contains(body, "02:00 PM") {
		t.Fatalf("confirmation body wrong:\n%s", body)
	}
	if _, body := Reminder(d); !strings.Contains(body, "coming up at 02:00 PM") {
		t.Fatalf("reminder body wrong:\n%s", body)
	}
}

func TestGoogleCalendarLink(t *testing.T) {
	start := time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC)
	link := GoogleCalendarLink("Knotless Braids", start, start.Add(2*time.Hour))
	if !strings.Contains(link, "action=TEMPLATE") {
		t.Fatalf("link missing action: %s", link)
	}
	if !strings.Contains(link, "20260402T180000Z%2F20260402T200000Z") {
		t.Fatalf("link missing dates range: %s", link)
	}
}
