package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/store"
)

// MemoryStore is an in-process Store. Segment writes are conditional on the
// version token, giving the aggregator the same optimistic-concurrency
// semantics as a remote backend.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]model.UserProfile
	segments map[string]model.CrowdSegment
	trips    map[string]model.Trip
}

var _ store.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[string]model.UserProfile{},
		segments: map[string]model.CrowdSegment{},
		trips:    map[string]model.Trip{},
	}
}

// GetUser looks up a profile.
func (s *MemoryStore) GetUser(_ context.Context, userID string) (model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return model.UserProfile{}, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	return u, nil
}

// PutUser stores a profile.
func (s *MemoryStore) PutUser(_ context.Context, profile model.UserProfile) error {
	s.mu.Lock()
	s.users[profile.ID] = profile
	s.mu.Unlock()
	return nil
}

// GetSegment returns the segment for a cell.
func (s *MemoryStore) GetSegment(_ context.Context, cell string) (model.CrowdSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seg, ok := s.segments[cell]
	if !ok {
		return model.CrowdSegment{}, fmt.Errorf("cell %s: %w", cell, store.ErrNotFound)
	}
	return seg, nil
}

// GetSegments returns the segments present for the given cells; missing cells
// are skipped.
func (s *MemoryStore) GetSegments(_ context.Context, cells []string) ([]model.CrowdSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CrowdSegment, 0, len(cells))
	for _, c := range cells {
		if seg, ok := s.segments[c]; ok {
			out = append(out, seg)
		}
	}
	return out, nil
}

// PutSegment applies a conditional write: expectedVersion 0 creates, any
// other value replaces only while the stored version still matches.
func (s *MemoryStore) PutSegment(_ context.Context, seg model.CrowdSegment, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.segments[seg.Cell]
	if expectedVersion == 0 {
		if exists {
			return fmt.Errorf("cell %s already exists: %w", seg.Cell, store.ErrVersionMismatch)
		}
	} else {
		if !exists || current.Version != expectedVersion {
			return fmt.Errorf("cell %s: %w", seg.Cell, store.ErrVersionMismatch)
		}
	}
	seg.Version = expectedVersion + 1
	s.segments[seg.Cell] = seg
	return nil
}

// PutTrip upserts a trip keyed by id.
func (s *MemoryStore) PutTrip(_ context.Context, trip model.Trip) error {
	s.mu.Lock()
	s.trips[trip.ID] = trip
	s.mu.Unlock()
	return nil
}

// GetTrip looks up a trip by id.
func (s *MemoryStore) GetTrip(_ context.Context, tripID string) (model.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trips[tripID]
	if !ok {
		return model.Trip{}, fmt.Errorf("trip %s: %w", tripID, store.ErrNotFound)
	}
	return t, nil
}

// GetTrips pages through a user's trips ordered by start time. The cursor is
// the offset into that ordering.
func (s *MemoryStore) GetTrips(_ context.Context, userID string, limit int, cursor string) ([]model.Trip, string, error) {
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("%w: bad cursor %q", model.ErrInvalidInput, cursor)
		}
		offset = n
	}

	s.mu.RLock()
	all := make([]model.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		if t.UserID == userID {
			all = append(all, t)
		}
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].StartedAt.Equal(all[j].StartedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].StartedAt.Before(all[j].StartedAt)
	})

	if offset >= len(all) {
		return nil, "", nil
	}
	end := offset + limit
	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	} else {
		end = len(all)
	}
	return all[offset:end], next, nil
}

// Close releases nothing for the memory backend.
func (s *MemoryStore) Close() error { return nil }
