package dto

import (
	"time"

	"pickup-route-service/internal/domain"
)

type IngestFixRequest struct {
	DriverID   int64      `json:"driver_id"`
	SessionID  int64      `json:"session_id"`
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	RecordedAt *time.Time `json:"recorded_at"`
	SpeedMPH   *float64   `json:"speed_mph"`
	Bearing    *float64   `json:"bearing"`
	AccuracyM  *float64   `json:"accuracy_m"`
}

type AlertResponse struct {
	SessionID             int64     `json:"session_id"`
	SchoolID              int64     `json:"school_id"`
	SchoolName            string    `json:"school_name"`
	DistanceMiles         float64   `json:"distance_miles"`
	MinutesUntilDismissal int       `json:"minutes_until_dismissal"`
	Severity              string    `json:"severity"`
	RaisedAt              time.Time `json:"raised_at"`
}

type IngestFixResponse struct {
	Recorded      bool           `json:"recorded"`
	Evaluated     bool           `json:"evaluated"`
	NextStop      *StopResponse  `json:"next_stop,omitempty"`
	DistanceMiles *float64       `json:"distance_miles,omitempty"`
	Alert         *AlertResponse `json:"alert,omitempty"`
}

type FixResponse struct {
	DriverID   int64     `json:"driver_id"`
	SessionID  int64     `json:"session_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
	SpeedMPH   *float64  `json:"speed_mph,omitempty"`
	Bearing    *float64  `json:"bearing,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
}

type TrackResponse struct {
	SessionID    int64           `json:"session_id"`
	Status       string          `json:"status"`
	LatestFix    *FixResponse    `json:"latest_fix,omitempty"`
	NextStop     *StopResponse   `json:"next_stop,omitempty"`
	RecentAlerts []AlertResponse `json:"recent_alerts"`
}

func NewAlertResponse(a domain.ProximityAlert) AlertResponse {
	return AlertResponse{
		SessionID:             a.SessionID,
		SchoolID:              a.SchoolID,
		SchoolName:            a.SchoolName,
		DistanceMiles:         a.DistanceMiles,
		MinutesUntilDismissal: a.MinutesUntilDismissal,
		Severity:              string(a.Severity),
		RaisedAt:              a.RaisedAt,
	}
}

func NewFixResponse(f domain.LocationFix) FixResponse {
	return FixResponse{
		DriverID:   f.DriverID,
		SessionID:  f.SessionID,
		Lat:        f.Coords.Lat,
		Lon:        f.Coords.Lon,
		RecordedAt: f.RecordedAt,
		SpeedMPH:   f.SpeedMPH,
		Bearing:    f.Bearing,
		AccuracyM:  f.AccuracyM,
	}
}
