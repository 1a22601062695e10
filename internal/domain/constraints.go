package domain

// Operator-supplied optimization constraints, immutable per run.
// DayStart anchors the simulated clock used by the route feasibility walk.
type Constraints struct {
	VehicleCount    int
	SeatsPerVehicle int
	MaxRouteMinutes int
	BufferMinutes   int
	DayStart        MinuteOfDay
	StartAddress    string
	EndAddress      string
}
