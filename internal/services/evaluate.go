package services

import (
	"fmt"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/geo"
)

// EvalConfig holds the tunables of the route feasibility walk.
type EvalConfig struct {
	// Assumed average speed in miles per hour, standing in for a routing
	// engine's travel times.
	AverageSpeedMPH float64

	// Arrivals closer than this to dismissal draw a tight_timing warning.
	TightLeadMinutes int

	// Lead used by the sequencer when estimating stop arrivals.
	ArrivalLeadMinutes int
}

func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		AverageSpeedMPH:    25,
		TightLeadMinutes:   5,
		ArrivalLeadMinutes: DefaultArrivalLeadMinutes,
	}
}

// RouteMetrics is the evaluation result for one route. Warnings are
// advisory strings; none block persistence.
type RouteMetrics struct {
	TotalMiles         float64
	TotalMinutes       int
	TotalStudents      int
	SeatUtilizationPct float64
	Warnings           []domain.RouteWarning
}

// EvaluateRoute walks an ordered route with a simulated clock and reports
// totals plus any timing, ordering, or capacity warnings.
//
// The clock starts at constraints.DayStart. Each leg costs
// distance/speed*60 plus the inter-stop buffer; legs with a missing
// coordinate endpoint contribute the buffer only. The sequencer should
// prevent dismissal-order conflicts, but the check guards against manually
// edited routes.
func EvaluateRoute(route domain.Route, constraints domain.Constraints, cfg EvalConfig) RouteMetrics {
	m := RouteMetrics{TotalStudents: route.TotalStudents()}

	clock := float64(constraints.DayStart)
	var prev *domain.Coordinates

	for i, stop := range route.Stops {
		if i > 0 {
			legMiles := 0.0
			if prev != nil && stop.School.Coords != nil {
				legMiles = geo.Miles(*prev, *stop.School.Coords)
			}

			m.TotalMiles += legMiles
			clock += legMiles/cfg.AverageSpeedMPH*60 + float64(constraints.BufferMinutes)
		}

		dismissal := float64(stop.School.Dismissal)
		switch {
		case clock > dismissal:
			m.Warnings = append(m.Warnings, domain.RouteWarning{
				Kind:     domain.WarnLateArrival,
				Severity: domain.SeverityCritical,
				SchoolID: stop.School.SchoolID,
				Message: fmt.Sprintf("%s: simulated arrival %s is after %s dismissal",
					stop.School.Name, minuteString(clock), stop.School.Dismissal),
			})
		case dismissal-clock < float64(cfg.TightLeadMinutes):
			m.Warnings = append(m.Warnings, domain.RouteWarning{
				Kind:     domain.WarnTightTiming,
				Severity: domain.SeverityWarning,
				SchoolID: stop.School.SchoolID,
				Message: fmt.Sprintf("%s: only %.0f minutes of slack before dismissal",
					stop.School.Name, dismissal-clock),
			})
		}

		if i+1 < len(route.Stops) && stop.School.Dismissal > route.Stops[i+1].School.Dismissal {
			m.Warnings = append(m.Warnings, domain.RouteWarning{
				Kind:     domain.WarnSchedulingConflict,
				Severity: domain.SeverityWarning,
				SchoolID: stop.School.SchoolID,
				Message: fmt.Sprintf("%s dismisses after the following stop %s",
					stop.School.Name, route.Stops[i+1].School.Name),
			})
		}

		if stop.School.Coords != nil {
			prev = stop.School.Coords
		}
	}

	m.TotalMinutes = int(clock - float64(constraints.DayStart))

	if constraints.MaxRouteMinutes > 0 && m.TotalMinutes > constraints.MaxRouteMinutes {
		m.Warnings = append(m.Warnings, domain.RouteWarning{
			Kind:     domain.WarnRouteTooLong,
			Severity: domain.SeverityWarning,
			Message: fmt.Sprintf("simulated route takes %d minutes, above the %d minute limit",
				m.TotalMinutes, constraints.MaxRouteMinutes),
		})
	}

	if constraints.SeatsPerVehicle > 0 {
		m.SeatUtilizationPct = float64(m.TotalStudents) / float64(constraints.SeatsPerVehicle) * 100
		if m.SeatUtilizationPct > 100 {
			m.Warnings = append(m.Warnings, domain.RouteWarning{
				Kind:     domain.WarnOverCapacity,
				Severity: domain.SeverityCritical,
				Message: fmt.Sprintf("%d students exceed %d seats (%.0f%% utilization)",
					m.TotalStudents, constraints.SeatsPerVehicle, m.SeatUtilizationPct),
			})
		}
	}

	return m
}

func minuteString(clock float64) string {
	return domain.MinuteOfDay(clock).String()
}
