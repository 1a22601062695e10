package domain

import (
	"fmt"
	"time"
)

// MinuteOfDay is a wall-clock time of day expressed as minutes since
// midnight. Dismissal times are only ever compared within a single service
// day, so no date or timezone is attached.
type MinuteOfDay int

// ParseClock parses an "HH:MM" string into a MinuteOfDay.
func ParseClock(s string) (MinuteOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return MinuteOfDay(t.Hour()*60 + t.Minute()), nil
}

// MinuteOf extracts the wall-clock minute of day from a timestamp.
func MinuteOf(t time.Time) MinuteOfDay {
	return MinuteOfDay(t.Hour()*60 + t.Minute())
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// ServiceDate is a calendar date in YYYY-MM-DD form. Sessions are unique
// per (route, service date), so the date is kept as an exact string key
// rather than a timestamp that could drift across timezones.
type ServiceDate string

func ParseServiceDate(s string) (ServiceDate, error) {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("parse service date %q: %w", s, err)
	}
	return ServiceDate(s), nil
}

func (d ServiceDate) String() string { return string(d) }

// Today returns the service date for the given instant.
func Today(t time.Time) ServiceDate {
	return ServiceDate(t.Format("2006-01-02"))
}
