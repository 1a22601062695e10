package services

import (
	"slices"

	"pickup-route-service/internal/domain"
)

// DefaultArrivalLeadMinutes is how early a vehicle should aim to arrive
// before a school's dismissal.
const DefaultArrivalLeadMinutes = 5

// SequenceStops orders a cluster's schools into a route stop list.
//
// Dismissal time ascending is the authoritative ordering; the cluster's
// internal order is only a hint. Each stop's estimated arrival is the
// dismissal time minus the lead, clamped at midnight.
func SequenceStops(cluster *domain.Cluster, leadMinutes int) []domain.Stop {
	schools := slices.Clone(cluster.Schools)

	if len(schools) > 1 {
		slices.SortStableFunc(schools, func(a, b domain.School) int {
			return int(a.Dismissal - b.Dismissal)
		})
	}

	stops := make([]domain.Stop, 0, len(schools))
	for i, s := range schools {
		arrival := s.Dismissal - domain.MinuteOfDay(leadMinutes)
		if arrival < 0 {
			arrival = 0
		}

		stops = append(stops, domain.Stop{
			School:           s,
			OrderIndex:       i,
			EstimatedArrival: arrival,
		})
	}

	return stops
}
