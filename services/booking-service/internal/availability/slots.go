package availability

// Config holds the business-hours window and candidate spacing, all in
// minutes since midnight.
type Config struct {
	OpenMinutes  int
	CloseMinutes int
	StepMinutes  int
}

func DefaultConfig() Config {
	return Config{
		OpenMinutes:  9 * 60,
		CloseMinutes: 18 * 60,
		StepMinutes:  60,
	}
}

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

// Slots returns the candidate start minutes at which a booking of
// durationMinutes fits inside business hours without overlapping any occupied
// interval. Results are in ascending order.
func Slots(cfg Config, durationMinutes int, occupied []Interval) []int {
	if durationMinutes <= 0 || cfg.StepMinutes <= 0 || cfg.CloseMinutes <= cfg.OpenMinutes {
		return nil
	}

	var slots []int
	for start := cfg.OpenMinutes; start < cfg.CloseMinutes; start += cfg.StepMinutes {
		candidate := Interval{Start: start, End: start + durationMinutes}
		if candidate.End > cfg.CloseMinutes {
			continue
		}
		if overlapsAny(candidate, occupied) {
			continue
		}
		slots = append(slots, start)
	}
	return slots
}

func overlapsAny(candidate Interval, occupied []Interval) bool {
	for _, o := range occupied {
		if candidate.Overlaps(o) {
			return true
		}
	}
	return false
}
