package services

import (
	"slices"

	"pickup-route-service/internal/domain"
)

// ClusterTuning holds the scoring constants of the assignment heuristic.
// The defaults reproduce field-observed behavior but have no derivation;
// treat them as tunable configuration and validate against real route data
// before changing them.
type ClusterTuning struct {
	// Score granted to an empty cluster, encouraging load to spread
	// across all vehicles instead of piling onto the first.
	EmptyClusterScore float64

	// Points deducted per minute of gap between a school's dismissal and
	// the cluster's latest dismissal. A steep penalty keeps schedules
	// feasible: a vehicle cannot be at two dismissals at once.
	GapPenaltyPerMinute float64

	// Weight of the capacity-fit term. Kept small so time compatibility
	// dominates and seat fit only breaks ties.
	CapacityWeight float64
}

func DefaultClusterTuning() ClusterTuning {
	return ClusterTuning{
		EmptyClusterScore:   80,
		GapPenaltyPerMinute: 2,
		CapacityWeight:      20,
	}
}

// BuildClusters partitions schools across vehicle slots using a greedy,
// single-pass, deterministic heuristic.
//
// Schools are taken in dismissal order (ties by latitude, then ID) and each
// is assigned to the highest-scoring cluster with enough remaining seats.
// A school that fits nowhere becomes an unassigned_school warning, not an
// error; the run still returns the clusters it could build. The result
// always contains exactly constraints.VehicleCount clusters, some possibly
// empty, so downstream code has a stable shape to iterate.
func BuildClusters(
	schools []domain.School,
	constraints domain.Constraints,
	tuning ClusterTuning,
) ([]*domain.Cluster, []domain.RouteWarning, error) {
	if constraints.VehicleCount < 1 {
		return nil, nil, &ConstraintError{Field: "vehicle_count", Reason: "must be at least 1"}
	}
	if constraints.SeatsPerVehicle < 1 {
		return nil, nil, &ConstraintError{Field: "seats_per_vehicle", Reason: "must be at least 1"}
	}

	candidates := make([]domain.School, 0, len(schools))
	for _, s := range schools {
		if s.StudentCount > 0 {
			candidates = append(candidates, s)
		}
	}

	// Latitude stands in for geographic adjacency when no routing engine
	// is available; schools without coordinates sort as latitude 0.
	slices.SortStableFunc(candidates, func(a, b domain.School) int {
		if a.Dismissal != b.Dismissal {
			return int(a.Dismissal - b.Dismissal)
		}
		la, lb := latOrZero(a), latOrZero(b)
		if la < lb {
			return -1
		}
		if la > lb {
			return 1
		}
		return int(a.SchoolID - b.SchoolID)
	})

	clusters := make([]*domain.Cluster, constraints.VehicleCount)
	for i := range clusters {
		clusters[i] = domain.NewCluster(i+1, constraints.SeatsPerVehicle)
	}

	var warnings []domain.RouteWarning

	for _, school := range candidates {
		best := -1
		bestScore := 0.0

		for i, c := range clusters {
			if !c.CanFit(school) {
				continue
			}

			score := tuning.timeScore(school, c) + tuning.capacityScore(school, c)
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}

		if best == -1 {
			warnings = append(warnings, domain.RouteWarning{
				Kind:     domain.WarnUnassignedSchool,
				Severity: domain.SeverityWarning,
				SchoolID: school.SchoolID,
				Message:  school.Name + " does not fit any vehicle; add capacity or vehicles",
			})
			continue
		}

		if err := clusters[best].Add(school); err != nil {
			// CanFit was checked above; reaching here means the cluster
			// invariant broke.
			return nil, nil, err
		}
	}

	return clusters, warnings, nil
}

func (t ClusterTuning) timeScore(s domain.School, c *domain.Cluster) float64 {
	if c.Empty() {
		return t.EmptyClusterScore
	}

	gap := float64(s.Dismissal - c.Latest)
	if gap < 0 {
		gap = -gap
	}

	score := t.EmptyClusterScore - t.GapPenaltyPerMinute*gap
	if score < 0 {
		return 0
	}
	return score
}

func (t ClusterTuning) capacityScore(s domain.School, c *domain.Cluster) float64 {
	remaining := c.RemainingSeats()
	if remaining <= 0 {
		return 0
	}
	return float64(s.StudentCount) / float64(remaining) * t.CapacityWeight
}

func latOrZero(s domain.School) float64 {
	if s.Coords == nil {
		return 0
	}
	return s.Coords.Lat
}
