package jobs

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDuePayload_ForwardsStoredFields(t *testing.T) {
	remindAt := time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC)
	job := Job{
		AppointmentID: "appt-1",
		Recipient:     "jane@example.com",
		RemindAt:      remindAt,
		Payload: map[string]any{
			"customer_name": "Jane",
			"service_name":  "Knotless Braids",
			"time_slot":     "02:00 PM",
		},
	}

	raw, err := duePayload(job)
	if err != nil {
		t.Fatalf("duePayload: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got["appointment_id"] != "appt-1" || got["recipient"] != "jane@example.com" {
		t.Fatalf("scheduling metadata missing: %v", got)
	}
	if got["remind_at"] != "2026-04-02T18:00:00Z" {
		t.Fatalf("remind_at = %v", got["remind_at"])
	}
	if got["customer_name"] != "Jane" || got["time_slot"] != "02:00 PM" {
		t.Fatalf("stored payload not forwarded: %v", got)
	}
}

func TestDuePayload_MetadataWinsOverPayload(t *testing.T) {
	job := Job{
		AppointmentID: "appt-2",
		Recipient:     "real@example.com",
		RemindAt:      time.Unix(0, 0).UTC(),
		Payload:       map[string]any{"recipient": "stale@example.com"},
	}
	raw, err := duePayload(job)
	if err != nil {
		t.Fatalf("duePayload: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["recipient"] != "real@example.com" {
		t.Fatalf("recipient = %v, want job column value", got["recipient"])
	}
}
