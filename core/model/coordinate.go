package model

import "fmt"

// Coordinate is a geographic point in degrees. Elevation is optional and
// expressed in meters above sea level when present.
type Coordinate struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// HasElevation reports whether the point carries elevation data.
func (c Coordinate) HasElevation() bool { return c.Elevation != nil }

// ElevationM returns the elevation in meters, or 0 when absent.
func (c Coordinate) ElevationM() float64 {
	if c.Elevation == nil {
		return 0
	}
	return *c.Elevation
}

// Validate checks that the point lies within valid geographic ranges.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.6f out of range [-90,90]", ErrInvalidInput, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.6f out of range [-180,180]", ErrInvalidInput, c.Longitude)
	}
	return nil
}

// Elev is a convenience constructor for optional elevation values.
func Elev(m float64) *float64 { return &m }
