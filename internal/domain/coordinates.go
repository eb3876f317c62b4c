package domain

import "fmt"

// Immutable geographic coordinates in decimal degrees (WGS84).
type Coordinates struct {
	Lat float64
	Lon float64
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lon)
}
