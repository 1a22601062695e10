package domain

import "time"

// A single position report from a driver's device, tied to a session.
// Fixes form an append-only stream; the most recent fix per
// (driver, session) is the vehicle's current location.
type LocationFix struct {
	DriverID   int64
	SessionID  int64
	Coords     Coordinates
	RecordedAt time.Time
	SpeedMPH   *float64
	Bearing    *float64
	AccuracyM  *float64
}

type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// A derived signal that a vehicle is both geographically far from and
// time-constrained against its next stop's dismissal. Recomputed on every
// fix; a prior alert never suppresses a later one for the same stop.
type ProximityAlert struct {
	SessionID             int64
	SchoolID              int64
	SchoolName            string
	DistanceMiles         float64
	MinutesUntilDismissal int
	Severity              AlertSeverity
	RaisedAt              time.Time
}
