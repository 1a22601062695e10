package dto

import (
	"time"

	"pickup-route-service/internal/domain"
)

type StartSessionRequest struct {
	RouteID  int64    `json:"route_id"`
	DriverID int64    `json:"driver_id"`
	Date     string   `json:"date"`
	StartLat *float64 `json:"start_lat"`
	StartLon *float64 `json:"start_lon"`
}

type SessionResponse struct {
	SessionID       int64      `json:"session_id"`
	RouteID         int64      `json:"route_id"`
	DriverID        int64      `json:"driver_id"`
	Date            string     `json:"date"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

type PickupResponse struct {
	StudentID  int64      `json:"student_id"`
	SchoolID   int64      `json:"school_id"`
	Status     string     `json:"status"`
	PickedUpAt *time.Time `json:"picked_up_at,omitempty"`
	Note       string     `json:"note,omitempty"`
}

type SessionDetailResponse struct {
	Session SessionResponse  `json:"session"`
	Pickups []PickupResponse `json:"pickups"`
}

type RecordPickupRequest struct {
	StudentID int64  `json:"student_id"`
	Status    string `json:"status"`
	Note      string `json:"note"`
}

type CompleteSessionRequest struct {
	EndLat *float64 `json:"end_lat"`
	EndLon *float64 `json:"end_lon"`
}

func NewSessionResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		SessionID:       s.SessionID,
		RouteID:         s.RouteID,
		DriverID:        s.DriverID,
		Date:            string(s.Date),
		Status:          string(s.Status),
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
		DurationMinutes: s.DurationMinutes,
	}
}

func NewPickupResponse(p domain.StudentPickup) PickupResponse {
	return PickupResponse{
		StudentID:  p.StudentID,
		SchoolID:   p.SchoolID,
		Status:     string(p.Status),
		PickedUpAt: p.PickedUpAt,
		Note:       p.Note,
	}
}
