package domain

type WarningKind string

const (
	WarnLateArrival        WarningKind = "late_arrival"
	WarnTightTiming        WarningKind = "tight_timing"
	WarnSchedulingConflict WarningKind = "scheduling_conflict"
	WarnOverCapacity       WarningKind = "over_capacity"
	WarnUnassignedSchool   WarningKind = "unassigned_school"
)

// RouteWarning is an advisory annotation attached to an optimization or
// evaluation result. Warnings never block persistence; operators may
// accept an imperfect route.
type RouteWarning struct {
	Kind     WarningKind
	Severity AlertSeverity
	SchoolID int64
	Message  string
}

// WarnRouteTooLong flags a simulated route duration above the operator's
// configured maximum.
const WarnRouteTooLong WarningKind = "route_too_long"
