package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

// LogNotifier writes proximity alerts to the structured log. It stands in
// for a push or SMS gateway in local and single-node deployments.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) NotifyProximity(_ context.Context, alert domain.ProximityAlert) error {
	evt := log.Warn()
	if alert.Severity == domain.SeverityCritical {
		evt = log.Error()
	}

	evt.
		Int64("session_id", alert.SessionID).
		Int64("school_id", alert.SchoolID).
		Str("school", alert.SchoolName).
		Float64("distance_miles", alert.DistanceMiles).
		Int("minutes_until_dismissal", alert.MinutesUntilDismissal).
		Str("severity", string(alert.Severity)).
		Msg("Vehicle may miss dismissal")

	return nil
}

var _ ports.AlertNotifier = (*LogNotifier)(nil)
