package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// Port: receives computed proximity alerts for delivery (push, email).
// The core only produces the alert value; delivery mechanics, including
// any debouncing, live behind this interface.
type AlertNotifier interface {
	NotifyProximity(ctx context.Context, alert domain.ProximityAlert) error
}
