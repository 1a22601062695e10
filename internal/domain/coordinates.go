package domain

// Immutable geographic coordinates (latitude, longitude in degrees).
type Coordinates struct {
	Lat float64
	Lon float64
}
