package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/store"
)

// runStoreSuite exercises the Store contract against any backend.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("segment versioning", func(t *testing.T) { testSegmentVersioning(t, newStore(t)) })
	t.Run("segment batch read", func(t *testing.T) { testSegmentBatch(t, newStore(t)) })
	t.Run("trips", func(t *testing.T) { testTrips(t, newStore(t)) })
	t.Run("trip paging", func(t *testing.T) { testTripPaging(t, newStore(t)) })
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer func() { require.NoError(t, st.Close()) }()

	_, err := st.GetUser(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	u := model.UserProfile{ID: "u1", DefaultVariantID: "LR", ShareAnonymousData: true}
	require.NoError(t, st.PutUser(ctx, u))

	got, err := st.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, u, got)

	// Upsert replaces.
	u.ShareAnonymousData = false
	require.NoError(t, st.PutUser(ctx, u))
	got, err = st.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.False(t, got.ShareAnonymousData)
}

func testSegmentVersioning(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer func() { require.NoError(t, st.Close()) }()

	_, err := st.GetSegment(ctx, "cell")
	require.ErrorIs(t, err, store.ErrNotFound)

	seg := model.CrowdSegment{
		Cell:        "cell",
		SampleCount: 1,
		LastUpdated: time.Now().UTC().Truncate(time.Second),
		Consumption: model.AggregatedConsumption{
			AvgWhPerKm: 140, MinWhPerKm: 140, MaxWhPerKm: 140, SampleCount: 1,
			ByVariant: map[string]model.VariantStats{"MR": {AvgWhPerKm: 140, SampleCount: 1}},
		},
	}

	// Create succeeds once and only once.
	require.NoError(t, st.PutSegment(ctx, seg, 0))
	err = st.PutSegment(ctx, seg, 0)
	require.ErrorIs(t, err, store.ErrVersionMismatch)

	got, err := st.GetSegment(ctx, "cell")
	require.NoError(t, err)
	require.EqualValues(t, 1, got.Version)
	require.Equal(t, 140.0, got.Consumption.ByVariant["MR"].AvgWhPerKm)

	// Conditional replace with the current token succeeds and bumps it.
	got.Consumption.SampleCount = 2
	require.NoError(t, st.PutSegment(ctx, got, got.Version))

	reread, err := st.GetSegment(ctx, "cell")
	require.NoError(t, err)
	require.EqualValues(t, 2, reread.Version)
	require.EqualValues(t, 2, reread.Consumption.SampleCount)

	// A stale token must fail and leave the row untouched.
	stale := reread
	stale.Consumption.SampleCount = 99
	err = st.PutSegment(ctx, stale, 1)
	require.ErrorIs(t, err, store.ErrVersionMismatch)

	unchanged, err := st.GetSegment(ctx, "cell")
	require.NoError(t, err)
	require.EqualValues(t, 2, unchanged.Consumption.SampleCount)
}

func testSegmentBatch(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer func() { require.NoError(t, st.Close()) }()

	for _, cell := range []string{"aaa", "bbb"} {
		seg := model.CrowdSegment{Cell: cell, Consumption: model.AggregatedConsumption{AvgWhPerKm: 100, SampleCount: 1}}
		require.NoError(t, st.PutSegment(ctx, seg, 0))
	}

	segs, err := st.GetSegments(ctx, []string{"aaa", "missing", "bbb"})
	require.NoError(t, err)
	require.Len(t, segs, 2)
}

func testTrips(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer func() { require.NoError(t, st.Close()) }()

	_, err := st.GetTrip(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)

	trip := model.Trip{
		ID:         "t1",
		UserID:     "u1",
		VariantID:  "MR",
		StartedAt:  time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		EndedAt:    time.Date(2026, 8, 30, 9, 40, 0, 0, time.UTC),
		DistanceKm: 33,
		Segments:   []model.TripSegment{{Geohash: "u09tvw", DistanceKm: 33, WhPerKm: 127}},
	}
	require.NoError(t, st.PutTrip(ctx, trip))

	got, err := st.GetTrip(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, trip.Segments, got.Segments)
	require.False(t, got.Synced)

	// Upsert keyed by id.
	trip.Synced = true
	require.NoError(t, st.PutTrip(ctx, trip))
	got, err = st.GetTrip(ctx, "t1")
	require.NoError(t, err)
	require.True(t, got.Synced)
}

func testTripPaging(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer func() { require.NoError(t, st.Close()) }()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		trip := model.Trip{
			ID:        fmt.Sprintf("t%d", i),
			UserID:    "u1",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, st.PutTrip(ctx, trip))
	}
	require.NoError(t, st.PutTrip(ctx, model.Trip{ID: "other", UserID: "u2", StartedAt: base}))

	page1, next, err := st.GetTrips(ctx, "u1", 2, "")
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, next)
	require.Equal(t, "t0", page1[0].ID)
	require.Equal(t, "t1", page1[1].ID)

	page2, next, err := st.GetTrips(ctx, "u1", 2, next)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotEmpty(t, next)

	page3, next, err := st.GetTrips(ctx, "u1", 2, next)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	require.Empty(t, next)
	require.Equal(t, "t4", page3[0].ID)

	// Bad cursors are rejected, not silently reset.
	_, _, err = st.GetTrips(ctx, "u1", 2, "junk")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	// Unknown users simply have no trips.
	none, next, err := st.GetTrips(ctx, "ghost", 10, "")
	require.NoError(t, err)
	require.Empty(t, none)
	require.Empty(t, next)
}
