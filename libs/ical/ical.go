// Package ical renders minimal RFC 5545 calendars: the subscription feed and
// the email invite attachment both go through it.
package ical

import (
	"strings"
	"time"
)

const timestampLayout = "20060102T150405Z"

// Event is one VEVENT. Times are converted to UTC on render.
type Event struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    string
	// Status is CONFIRMED or TENTATIVE.
	Status string
}

type Calendar struct {
	ProdID string
	Name   string
	Events []Event
}

// Render produces the serialized calendar with CRLF line endings.
func (c Calendar) Render() string {
	var b strings.Builder
	line(&b, "BEGIN:VCALENDAR")
	line(&b, "VERSION:2.0")
	prodID := c.ProdID
	if prodID == "" {
		prodID = "-//salonbook//booking//EN"
	}
	line(&b, "PRODID:"+prodID)
	line(&b, "CALSCALE:GREGORIAN")
	if c.Name != "" {
		line(&b, "X-WR-CALNAME:"+Escape(c.Name))
	}
	now := time.Now().UTC().Format(timestampLayout)
	for _, e := range c.Events {
		line(&b, "BEGIN:VEVENT")
		line(&b, "UID:"+e.UID)
		line(&b, "DTSTAMP:"+now)
		line(&b, "DTSTART:"+e.Start.UTC().Format(timestampLayout))
		line(&b, "DTEND:"+e.End.UTC().Format(timestampLayout))
		line(&b, "SUMMARY:"+Escape(e.Summary))
		if e.Description != "" {
			line(&b, "DESCRIPTION:"+Escape(e.Description))
		}
		if e.Location != "" {
			line(&b, "LOCATION:"+Escape(e.Location))
		}
		if e.Status != "" {
			line(&b, "STATUS:"+e.Status)
		}
		line(&b, "END:VEVENT")
	}
	line(&b, "END:VCALENDAR")
	return b.String()
}

// Escape applies RFC 5545 text escaping.
func Escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return r.Replace(s)
}

func line(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteString("\r\n")
}
