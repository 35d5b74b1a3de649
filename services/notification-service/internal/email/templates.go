package email

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TemplateData carries the appointment fields the message bodies interpolate.
type TemplateData struct {
	BusinessName string
	CustomerName string
	ServiceName  string
	Date         string
	TimeSlot     string
	Duration     string
	Price        float64
	Notes        string
	Phone        string
	GCalLink     string
}

// OperatorAlert notifies the operator that a new request landed and is
// waiting for confirmation.
func OperatorAlert(d TemplateData) (subject, body string) {
	subject = "New Appointment Request - " + d.CustomerName
	var b strings.Builder
	fmt.Fprintf(&b, "A new appointment request came in.\n\n")
	fmt.Fprintf(&b, "Customer: %s\n", d.CustomerName)
	if d.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", d.Phone)
	}
	fmt.Fprintf(&b, "Service: %s\n", d.ServiceName)
	fmt.Fprintf(&b, "Date: %s at %s\n", d.Date, d.TimeSlot)
	if d.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", d.Duration)
	}
	fmt.Fprintf(&b, "Price: $%.2f\n", d.Price)
	if d.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", d.Notes)
	}
	fmt.Fprintf(&b, "\nConfirm or decline it from the admin dashboard.\n")
	return subject, b.String()
}

// RequestReceived acknowledges the customer's booking request. The request is
// held as pending until the operator confirms.
func RequestReceived(d TemplateData) (subject, body string) {
	subject = "Appointment Request Received - " + d.BusinessName
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", d.CustomerName)
	fmt.Fprintf(&b, "Thanks for your request! Here is what we have:\n\n")
	fmt.Fprintf(&b, "Service: %s\n", d.ServiceName)
	fmt.Fprintf(&b, "Date: %s at %s\n", d.Date, d.TimeSlot)
	fmt.Fprintf(&b, "Price: $%.2f\n\n", d.Price)
	fmt.Fprintf(&b, "Your appointment is not confirmed yet. A deposit is required to secure your spot; you will receive a confirmation email once it is set.\n\n")
	fmt.Fprintf(&b, "%s\n", d.BusinessName)
	return subject, b.String()
}

// Confirmation carries the add-to-calendar link; the ICS attachment rides on
// the message itself.
func Confirmation(d TemplateData) (subject, body string) {
	subject = "Appointment Confirmed - " + d.BusinessName
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", d.CustomerName)
	fmt.Fprintf(&b, "Your appointment is confirmed!\n\n")
	fmt.Fprintf(&b, "Service: %s\n", d.ServiceName)
	fmt.Fprintf(&b, "Date: %s at %s\n", d.Date, d.TimeSlot)
	if d.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", d.Duration)
	}
	fmt.Fprintf(&b, "Price: $%.2f\n\n", d.Price)
	if d.GCalLink != "" {
		fmt.Fprintf(&b, "Add it to your calendar: %s\n\n", d.GCalLink)
	}
	fmt.Fprintf(&b, "See you soon!\n%s\n", d.BusinessName)
	return subject, b.String()
}

// Reminder is the 1-hour heads-up.
func Reminder(d TemplateData) (subject, body string) {
	subject = "Appointment Reminder - " + d.BusinessName
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", d.CustomerName)
	fmt.Fprintf(&b, "This is a reminder that your %s appointment is coming up at %s today (%s).\n\n", d.ServiceName, d.TimeSlot, d.Date)
	fmt.Fprintf(&b, "See you soon!\n%s\n", d.BusinessName)
	return subject, b.String()
}

// GoogleCalendarLink builds the render?action=TEMPLATE URL customers can
// click instead of opening the attachment.
func GoogleCalendarLink(summary string, start, end time.Time) string {
	const layout = "20060102T150405Z"
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", summary)
	q.Set("dates", start.UTC().Format(layout)+"/"+end.UTC().Format(layout))
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
