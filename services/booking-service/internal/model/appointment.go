package model

import "time"

// Appointment snapshots the service name, price, and duration label at
// booking time so later catalog edits do not rewrite history.
type Appointment struct {
	ID            string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ServiceID     string
	ServiceName   string
	DurationLabel string
	TotalPrice    float64
	Date          string // ISO YYYY-MM-DD, interpreted in the business time zone
	TimeSlot      string // 12-hour clock, e.g. "02:00 PM"
	Status        string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Service struct {
	ID            string
	Name          string
	Price         float64
	DurationLabel string
	Description   string
	ImageURL      string
	CreatedAt     time.Time
}

type BlockedDate struct {
	Date      string
	Reason    string
	CreatedAt time.Time
}
