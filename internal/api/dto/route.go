package dto

import (
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/services"
)

type OptimizeRequest struct {
	VehicleCount    int    `json:"vehicle_count"`
	SeatsPerVehicle int    `json:"seats_per_vehicle"`
	MaxRouteMinutes int    `json:"max_route_minutes"`
	BufferMinutes   int    `json:"buffer_minutes"`
	DayStart        string `json:"day_start"`
	StartAddress    string `json:"start_address"`
	EndAddress      string `json:"end_address"`

	// Optional overrides; defaults apply when omitted.
	AverageSpeedMPH    *float64 `json:"average_speed_mph"`
	ArrivalLeadMinutes *int     `json:"arrival_lead_minutes"`
}

type StopResponse struct {
	SchoolID         int64    `json:"school_id"`
	SchoolName       string   `json:"school_name"`
	Lat              *float64 `json:"lat,omitempty"`
	Lon              *float64 `json:"lon,omitempty"`
	Dismissal        string   `json:"dismissal"`
	StudentCount     int      `json:"student_count"`
	OrderIndex       int      `json:"order_index"`
	EstimatedArrival string   `json:"estimated_arrival"`
}

type RouteResponse struct {
	RouteID  int64          `json:"route_id,omitempty"`
	Name     string         `json:"name"`
	DriverID *int64         `json:"driver_id,omitempty"`
	Stops    []StopResponse `json:"stops"`
}

type WarningResponse struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	SchoolID int64  `json:"school_id,omitempty"`
	Message  string `json:"message"`
}

type RouteMetricsResponse struct {
	TotalMiles         float64           `json:"total_miles"`
	TotalMinutes       int               `json:"total_minutes"`
	TotalStudents      int               `json:"total_students"`
	SeatUtilizationPct float64           `json:"seat_utilization_pct"`
	Warnings           []WarningResponse `json:"warnings"`
}

type ProposalResponse struct {
	Route   RouteResponse        `json:"route"`
	Metrics RouteMetricsResponse `json:"metrics"`
}

type OptimizeResponse struct {
	Proposals []ProposalResponse `json:"proposals"`
	Warnings  []WarningResponse  `json:"warnings"`
}

type CommitStopRequest struct {
	SchoolID         int64  `json:"school_id"`
	OrderIndex       int    `json:"order_index"`
	EstimatedArrival string `json:"estimated_arrival"`
}

type CommitRouteRequest struct {
	Name     string              `json:"name"`
	DriverID *int64              `json:"driver_id"`
	Stops    []CommitStopRequest `json:"stops"`
}

type CommitRequest struct {
	Routes []CommitRouteRequest `json:"routes"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

func NewStopResponse(s domain.Stop) StopResponse {
	res := StopResponse{
		SchoolID:         s.School.SchoolID,
		SchoolName:       s.School.Name,
		Dismissal:        s.School.Dismissal.String(),
		StudentCount:     s.School.StudentCount,
		OrderIndex:       s.OrderIndex,
		EstimatedArrival: s.EstimatedArrival.String(),
	}
	if s.School.Coords != nil {
		res.Lat = &s.School.Coords.Lat
		res.Lon = &s.School.Coords.Lon
	}
	return res
}

func NewRouteResponse(r domain.Route) RouteResponse {
	res := RouteResponse{
		RouteID:  r.RouteID,
		Name:     r.Name,
		DriverID: r.DriverID,
		Stops:    make([]StopResponse, 0, len(r.Stops)),
	}
	for _, s := range r.Stops {
		res.Stops = append(res.Stops, NewStopResponse(s))
	}
	return res
}

func NewWarningResponses(warnings []domain.RouteWarning) []WarningResponse {
	out := make([]WarningResponse, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, WarningResponse{
			Kind:     string(w.Kind),
			Severity: string(w.Severity),
			SchoolID: w.SchoolID,
			Message:  w.Message,
		})
	}
	return out
}

func NewRouteMetricsResponse(m services.RouteMetrics) RouteMetricsResponse {
	return RouteMetricsResponse{
		TotalMiles:         m.TotalMiles,
		TotalMinutes:       m.TotalMinutes,
		TotalStudents:      m.TotalStudents,
		SeatUtilizationPct: m.SeatUtilizationPct,
		Warnings:           NewWarningResponses(m.Warnings),
	}
}
