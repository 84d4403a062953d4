// Package simulator generates plausible completed trips over a route, used to
// seed crowd data in development and load tests.
package simulator

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/anoop-jadhav-ui/RangeIQ/core/geo"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/physics"
)

// Options controls trip generation.
type Options struct {
	UserID       string
	VariantID    string
	TripCount    int
	TemperatureC float64
	AvgSpeedKmh  float64
	Traffic      model.TrafficDensity
	Seed         int64
}

// GenerateTrips produces TripCount trips over the route. Consumption per
// segment is the physics estimate with +-10% noise, so the seeded crowd
// aggregates stay close to the model while still showing variance.
func GenerateTrips(route model.Route, opts Options) []model.Trip {
	if opts.TripCount <= 0 {
		opts.TripCount = 1
	}
	if opts.AvgSpeedKmh <= 0 {
		opts.AvgSpeedKmh = 60
	}
	if opts.VariantID == "" {
		opts.VariantID = model.DefaultVariantID
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	variant, _ := model.VariantByID(opts.VariantID)
	state := model.NewVehicleState(variant.ID)
	phys := physics.New(variant, state)
	cond := physics.Conditions{
		TemperatureC: opts.TemperatureC,
		AvgSpeedKmh:  opts.AvgSpeedKmh,
		Traffic:      opts.Traffic,
	}
	baseWhPerKm := phys.ModelWhPerKm(cond)

	trips := make([]model.Trip, 0, opts.TripCount)
	start := time.Now().UTC().Add(-time.Duration(opts.TripCount) * time.Hour)
	for i := 0; i < opts.TripCount; i++ {
		trip := model.Trip{
			ID:        uuid.NewString(),
			UserID:    opts.UserID,
			VariantID: variant.ID,
			StartedAt: start.Add(time.Duration(i) * time.Hour),
			Weather:   model.WeatherSnapshot{TemperatureC: opts.TemperatureC},
			Vehicle:   state,
		}
		for _, seg := range route.Segments {
			noise := 1 + (rng.Float64()-0.5)*0.2
			whPerKm := baseWhPerKm * noise
			trip.Segments = append(trip.Segments, model.TripSegment{
				Geohash:          geo.Encode(seg.From.Latitude, seg.From.Longitude, geo.DefaultPrecision),
				DistanceKm:       seg.DistanceKm,
				ElevationChangeM: seg.ElevationGainM - seg.ElevationLossM,
				AvgSpeedKmh:      opts.AvgSpeedKmh,
				WhPerKm:          whPerKm,
				RoadType:         seg.RoadType,
				TrafficLevel:     int(opts.Traffic),
			})
			trip.DistanceKm += seg.DistanceKm
			trip.EnergyUsedWh += whPerKm * seg.DistanceKm
		}
		if trip.DistanceKm > 0 {
			trip.AvgWhPerKm = trip.EnergyUsedWh / trip.DistanceKm
		}
		trip.EndedAt = trip.StartedAt.Add(time.Duration(trip.DistanceKm / opts.AvgSpeedKmh * float64(time.Hour)))
		trips = append(trips, trip)
	}
	return trips
}
