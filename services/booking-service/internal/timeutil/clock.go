package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDurationMinutes is used whenever a service duration label cannot be
// resolved to a number.
const DefaultDurationMinutes = 120

const DateLayout = "2006-01-02"

// ParseClock converts a 12-hour slot string ("02:00 PM") to minutes since
// midnight. 12 AM maps to 0, 12 PM stays 12, PM adds 12 hours otherwise.
// Malformed input is an error, never a silent zero.
func ParseClock(slot string) (int, error) {
	parts := strings.Fields(strings.TrimSpace(slot))
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}
	meridiem := strings.ToUpper(parts[1])
	if meridiem != "AM" && meridiem != "PM" {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}

	hm := strings.Split(parts[0], ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}
	hours, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}
	minutes, err := strconv.Atoi(hm[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}
	if hours < 1 || hours > 12 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time slot %q", slot)
	}

	if hours == 12 {
		hours = 0
	}
	if meridiem == "PM" {
		hours += 12
	}
	return hours*60 + minutes, nil
}

// FormatClock is the inverse of ParseClock: 0 becomes "12:00 AM", 720 stays
// "12:00 PM".
func FormatClock(totalMinutes int) string {
	h := totalMinutes / 60
	m := totalMinutes % 60
	meridiem := "AM"
	if h >= 12 {
		meridiem = "PM"
	}
	if h > 12 {
		h -= 12
	}
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, m, meridiem)
}

var firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseDuration resolves a free-text service duration label ("4-6 Hours",
// "90 min") to minutes. Ranges intentionally resolve to their first number,
// not an average; labels without a recognizable number or unit fall back to
// two hours.
func ParseDuration(label string) int {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return DefaultDurationMinutes
	}
	match := firstNumber.FindString(lower)
	if match == "" {
		return DefaultDurationMinutes
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return DefaultDurationMinutes
	}
	switch {
	case strings.Contains(lower, "min"):
		return int(value)
	case strings.Contains(lower, "hour") || strings.Contains(lower, "hr"):
		return int(value * 60)
	default:
		return DefaultDurationMinutes
	}
}

// At combines an ISO date and a 12-hour slot into an instant in loc. This is
// the single place date+slot strings become a time.Time; reminder scheduling,
// calendar payloads, and the feed all go through it.
func At(date string, slot string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	minutes, err := ParseClock(slot)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(minutes) * time.Minute), nil
}
