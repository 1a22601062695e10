package domain

// Represents one school served by the pickup fleet.
// Coords may be nil when the school has not been geocoded yet; distance
// math must be guarded by the caller. StudentCount is derived from the
// active student roster, never stored independently.
type School struct {
	SchoolID     int64
	Name         string
	Coords       *Coordinates
	Dismissal    MinuteOfDay
	StudentCount int
}

// Represents a single student enrolled at a school.
// Inactive students are excluded from clustering input and pickup seeding.
type Student struct {
	StudentID int64
	Name      string
	SchoolID  int64
	Active    bool
}
