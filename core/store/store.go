// Package store defines the persistence contract the core depends on.
// Implementations live under infra/store; the core never assumes a concrete
// storage technology.
package store

import (
	"context"
	"errors"

	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
)

var (
	// ErrNotFound marks a missing user, segment or trip. Callers treat it as
	// "no data", never as a hard failure.
	ErrNotFound = errors.New("not found")

	// ErrVersionMismatch is returned by conditional segment writes when the
	// stored version no longer matches the caller's token. The aggregator
	// retries on it.
	ErrVersionMismatch = errors.New("segment version mismatch")

	// ErrUnavailable marks a store or network failure. The read path degrades
	// to model-only prediction; the write path treats it as retryable.
	ErrUnavailable = errors.New("store unavailable")
)

// UserStore resolves user profiles.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (model.UserProfile, error)
	PutUser(ctx context.Context, profile model.UserProfile) error
}

// SegmentStore reads and conditionally writes crowd segments.
//
// PutSegment must compare expectedVersion against the stored segment's
// version: 0 means "create, fail if present"; any other value means "replace
// if the stored version still matches". A mismatch fails with
// ErrVersionMismatch and must leave the stored segment untouched.
type SegmentStore interface {
	GetSegment(ctx context.Context, cell string) (model.CrowdSegment, error)
	GetSegments(ctx context.Context, cells []string) ([]model.CrowdSegment, error)
	PutSegment(ctx context.Context, seg model.CrowdSegment, expectedVersion int64) error
}

// TripStore persists trip records. PutTrip is an idempotent upsert keyed by
// trip id.
type TripStore interface {
	PutTrip(ctx context.Context, trip model.Trip) error
	GetTrip(ctx context.Context, tripID string) (model.Trip, error)
	// GetTrips pages through a user's trips; an empty next cursor means the
	// listing is exhausted.
	GetTrips(ctx context.Context, userID string, limit int, cursor string) ([]model.Trip, string, error)
}

// Store is the full persistence surface with an explicit lifecycle. Handles
// are constructed once, injected where needed and closed on shutdown.
type Store interface {
	UserStore
	SegmentStore
	TripStore
	Close() error
}
