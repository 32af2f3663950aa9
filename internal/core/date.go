package core

import "time"

// DateLayout is the canonical calendar-date key format used everywhere a
// DailyLog is addressed.
const DateLayout = "2006-01-02"

// DateKey returns the canonical "YYYY-MM-DD" key for t in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a canonical date key back into a midnight time.Time.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse(DateLayout, key)
}

// WeekStart returns midnight of the Sunday of the calendar week containing t.
func WeekStart(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}
