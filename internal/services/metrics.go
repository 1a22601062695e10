package services

import (
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/geo"
	"pickup-route-service/internal/ports"
)

// BuildSessionSummary derives the reporting totals for a session from its
// pickup rows and recorded fix trail. Distance is the great-circle sum
// over consecutive fixes, the same proxy used everywhere else.
func BuildSessionSummary(
	session domain.Session,
	pickups []domain.StudentPickup,
	fixes []domain.LocationFix,
) ports.SessionSummary {
	s := ports.SessionSummary{TotalStudents: len(pickups)}

	for _, p := range pickups {
		switch p.Status {
		case domain.PickupPickedUp:
			s.PickedUp++
		case domain.PickupAbsent:
			s.Absent++
		case domain.PickupNoShow:
			s.NoShow++
		}
	}

	for i := 1; i < len(fixes); i++ {
		s.DistanceMiles += geo.Miles(fixes[i-1].Coords, fixes[i].Coords)
	}

	if session.StartedAt != nil && session.CompletedAt != nil {
		s.DurationMinutes = int(session.CompletedAt.Sub(*session.StartedAt).Minutes())
	} else if session.DurationMinutes != nil {
		s.DurationMinutes = *session.DurationMinutes
	}

	return s
}
