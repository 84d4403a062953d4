package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anoop-jadhav-ui/RangeIQ/core/geo"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
)

func testRoute(t *testing.T) model.Route {
	t.Helper()
	route, err := model.NewRoute(
		model.Coordinate{Latitude: 48.8566, Longitude: 2.3522},
		model.Coordinate{Latitude: 49.0566, Longitude: 2.3522},
		model.Coordinate{Latitude: 48.9566, Longitude: 2.3522},
	)
	require.NoError(t, err)
	return route
}

func TestGenerateTrips_Shape(t *testing.T) {
	route := testRoute(t)
	trips := GenerateTrips(route, Options{
		UserID: "sim", VariantID: "MR", TripCount: 10,
		TemperatureC: 20, AvgSpeedKmh: 60, Seed: 42,
	})
	require.Len(t, trips, 10)

	for _, trip := range trips {
		require.NotEmpty(t, trip.ID)
		require.Equal(t, "sim", trip.UserID)
		require.Equal(t, "MR", trip.VariantID)
		require.NoError(t, trip.Validate())
		require.Len(t, trip.Segments, len(route.Segments))
		require.InDelta(t, route.TotalDistanceKm, trip.DistanceKm, 1e-9)
		require.True(t, trip.EndedAt.After(trip.StartedAt))
		require.Greater(t, trip.AvgWhPerKm, 0.0)

		for i, seg := range trip.Segments {
			from := route.Segments[i].From
			require.Equal(t, geo.Encode(from.Latitude, from.Longitude, geo.DefaultPrecision), seg.Geohash)
			// Noise stays within +-10% of the physics estimate: MR base at
			// reference conditions is 130 Wh/km.
			require.InDelta(t, 130, seg.WhPerKm, 13.0+1e-9)
		}
	}

	// Trip ids must be unique so resubmission stays idempotent.
	seen := map[string]bool{}
	for _, trip := range trips {
		require.False(t, seen[trip.ID], "duplicate trip id")
		seen[trip.ID] = true
	}
}

func TestGenerateTrips_Defaults(t *testing.T) {
	trips := GenerateTrips(testRoute(t), Options{UserID: "sim"})
	require.Len(t, trips, 1)
	require.Equal(t, model.DefaultVariantID, trips[0].VariantID)
	require.Greater(t, trips[0].Segments[0].AvgSpeedKmh, 0.0)
}

func TestGenerateTrips_SeededDeterminism(t *testing.T) {
	route := testRoute(t)
	opts := Options{UserID: "sim", TripCount: 3, AvgSpeedKmh: 60, TemperatureC: 20, Seed: 7}

	a := GenerateTrips(route, opts)
	b := GenerateTrips(route, opts)
	for i := range a {
		// IDs differ, the sampled consumption sequence does not.
		for j := range a[i].Segments {
			require.Equal(t, a[i].Segments[j].WhPerKm, b[i].Segments[j].WhPerKm)
		}
	}
}
