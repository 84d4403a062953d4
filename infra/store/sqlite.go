package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/store"
)

// SQLiteStore persists users, crowd segments and trips in a SQLite database.
// Records are stored as JSON documents; the segment version column carries
// the optimistic-concurrency token.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id   TEXT PRIMARY KEY,
    data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS segments (
    cell    TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    data    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trips (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trips_user ON trips(user_id, started_at);
`

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// GetUser looks up a profile.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (model.UserProfile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM users WHERE id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return model.UserProfile{}, wrapUnavailable(err)
	}
	var u model.UserProfile
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return model.UserProfile{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return u, nil
}

// PutUser upserts a profile.
func (s *SQLiteStore) PutUser(ctx context.Context, profile model.UserProfile) error {
	b, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, data) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		profile.ID, string(b))
	return wrapUnavailable(err)
}

// GetSegment returns the segment for a cell.
func (s *SQLiteStore) GetSegment(ctx context.Context, cell string) (model.CrowdSegment, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM segments WHERE cell = ?`, cell).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CrowdSegment{}, fmt.Errorf("cell %s: %w", cell, store.ErrNotFound)
	}
	if err != nil {
		return model.CrowdSegment{}, wrapUnavailable(err)
	}
	return unmarshalSegment(data)
}

// GetSegments batch-loads the segments present for the given cells.
func (s *SQLiteStore) GetSegments(ctx context.Context, cells []string) ([]model.CrowdSegment, error) {
	out := make([]model.CrowdSegment, 0, len(cells))
	for _, cell := range cells {
		seg, err := s.GetSegment(ctx, cell)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, nil
}

// PutSegment applies a conditional write. expectedVersion 0 creates the row
// and fails if the cell already exists; any other value replaces the row only
// while the stored version still matches.
func (s *SQLiteStore) PutSegment(ctx context.Context, seg model.CrowdSegment, expectedVersion int64) error {
	seg.Version = expectedVersion + 1
	b, err := json.Marshal(seg)
	if err != nil {
		return err
	}

	if expectedVersion == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO segments (cell, version, data) VALUES (?, ?, ?)`,
			seg.Cell, seg.Version, string(b))
		if err != nil {
			return wrapUnavailable(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("cell %s already exists: %w", seg.Cell, store.ErrVersionMismatch)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE segments SET version = ?, data = ? WHERE cell = ? AND version = ?`,
		seg.Version, string(b), seg.Cell, expectedVersion)
	if err != nil {
		return wrapUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cell %s: %w", seg.Cell, store.ErrVersionMismatch)
	}
	return nil
}

// PutTrip upserts a trip keyed by id.
func (s *SQLiteStore) PutTrip(ctx context.Context, trip model.Trip) error {
	b, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trips (id, user_id, started_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id,
		     started_at = excluded.started_at, data = excluded.data`,
		trip.ID, trip.UserID, trip.StartedAt.Unix(), string(b))
	return wrapUnavailable(err)
}

// GetTrip looks up a trip by id.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (model.Trip, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM trips WHERE id = ?`, tripID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Trip{}, fmt.Errorf("trip %s: %w", tripID, store.ErrNotFound)
	}
	if err != nil {
		return model.Trip{}, wrapUnavailable(err)
	}
	var t model.Trip
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return model.Trip{}, fmt.Errorf("unmarshal trip: %w", err)
	}
	return t, nil
}

// GetTrips pages a user's trips ordered by start time; the cursor is the
// offset into that ordering.
func (s *SQLiteStore) GetTrips(ctx context.Context, userID string, limit int, cursor string) ([]model.Trip, string, error) {
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

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM trips WHERE user_id = ? ORDER BY started_at, id LIMIT ? OFFSET ?`,
		userID, limit+1, offset)
	if err != nil {
		return nil, "", wrapUnavailable(err)
	}
	defer func() { _ = rows.Close() }()

	var trips []model.Trip
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, "", err
		}
		var t model.Trip
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, "", fmt.Errorf("unmarshal trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(trips) > limit {
		trips = trips[:limit]
		next = strconv.Itoa(offset + limit)
	}
	return trips, next, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func unmarshalSegment(data string) (model.CrowdSegment, error) {
	var seg model.CrowdSegment
	if err := json.Unmarshal([]byte(data), &seg); err != nil {
		return model.CrowdSegment{}, fmt.Errorf("unmarshal segment: %w", err)
	}
	return seg, nil
}

// wrapUnavailable maps low-level database failures to the retryable store
// error the callers branch on.
func wrapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}
