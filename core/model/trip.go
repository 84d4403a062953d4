package model

import (
	"fmt"
	"time"
)

// WeatherSnapshot is the ambient conditions recorded with a trip or supplied
// with a prediction request.
type WeatherSnapshot struct {
	TemperatureC float64 `json:"temperature"`
	HeadwindKmh  float64 `json:"headwind"`
	Condition    string  `json:"condition,omitempty"`
}

// TripSegment is one recorded leg of a completed trip, already reduced to its
// geocell. Raw GPS traces never leave the vehicle.
type TripSegment struct {
	Geohash          string   `json:"geohash"`
	DistanceKm       float64  `json:"distance"`
	ElevationChangeM float64  `json:"elevationChange"`
	AvgSpeedKmh      float64  `json:"avgSpeed"`
	WhPerKm          float64  `json:"whPerKm"`
	RoadType         RoadType `json:"roadType"`
	TrafficLevel     int      `json:"trafficLevel"`
}

// Trip is a completed, possibly offline-recorded trip submitted for sync.
type Trip struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	VariantID    string          `json:"variantId"`
	StartedAt    time.Time       `json:"startedAt"`
	EndedAt      time.Time       `json:"endedAt"`
	Weather      WeatherSnapshot `json:"weather"`
	Vehicle      VehicleState    `json:"vehicle"`
	DistanceKm   float64         `json:"distanceKm"`
	EnergyUsedWh float64         `json:"energyUsedWh"`
	AvgWhPerKm   float64         `json:"avgWhPerKm"`
	Segments     []TripSegment   `json:"segments"`

	// Synced marks the trip as already applied to the crowd aggregates.
	// Re-submitting a synced trip must not double-count its samples.
	Synced bool `json:"synced"`
}

// Validate rejects trips that cannot be aggregated.
func (t Trip) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: trip id is required", ErrInvalidInput)
	}
	if t.DistanceKm < 0 {
		return fmt.Errorf("%w: negative trip distance", ErrInvalidInput)
	}
	for i, s := range t.Segments {
		if s.Geohash == "" {
			return fmt.Errorf("%w: segment %d missing geohash", ErrInvalidInput, i)
		}
		if s.WhPerKm < 0 {
			return fmt.Errorf("%w: segment %d negative consumption", ErrInvalidInput, i)
		}
	}
	return nil
}

// UserProfile is the per-user account data the core needs: the default
// vehicle and the anonymous data sharing opt-in.
type UserProfile struct {
	ID                 string `json:"id"`
	DefaultVariantID   string `json:"defaultVariantId"`
	ShareAnonymousData bool   `json:"shareAnonymousData"`
}

// DefaultUserProfile is used when a user record does not exist yet. Data
// sharing defaults to off; aggregation only ever uses explicit opt-ins.
func DefaultUserProfile(id string) UserProfile {
	return UserProfile{ID: id, DefaultVariantID: DefaultVariantID}
}
