package domain

// Represents a single stop in a pickup route.
// A Stop always embeds a fully resolved School value; callers never need
// to re-fetch school details at point of use.
type Stop struct {
	School           School
	OrderIndex       int
	EstimatedArrival MinuteOfDay
}

// Represents the persisted, ordered stop plan for one vehicle, independent
// of any specific day's execution.
//
// Invariants: OrderIndex is a dense 0..n-1 sequence and EstimatedArrival is
// non-decreasing across it (dismissal-time-sorted by construction).
type Route struct {
	RouteID  int64
	Name     string
	DriverID *int64
	Stops    []Stop
}

// TotalStudents sums the student counts across all stops.
func (r *Route) TotalStudents() int {
	total := 0
	for _, s := range r.Stops {
		total += s.School.StudentCount
	}
	return total
}
