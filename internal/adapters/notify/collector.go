package notify

import (
	"context"
	"sync"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

// Collector buffers alerts in memory. Used in tests and as a fan-out tap
// when a caller wants to inspect what was raised.
type Collector struct {
	mu     sync.Mutex
	alerts []domain.ProximityAlert
}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) NotifyProximity(_ context.Context, alert domain.ProximityAlert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return nil
}

// Alerts returns a copy of everything collected so far.
func (c *Collector) Alerts() []domain.ProximityAlert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ProximityAlert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

var _ ports.AlertNotifier = (*Collector)(nil)
