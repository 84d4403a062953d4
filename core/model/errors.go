package model

import "errors"

var (
	// ErrInvalidInput marks malformed coordinates, empty routes or
	// out-of-range vehicle state values. Requests carrying it are rejected
	// before any processing happens.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRoute is returned when a route has fewer than two points.
	ErrInvalidRoute = errors.New("route needs at least two points")

	// ErrUnknownVariant is returned for vehicle variant ids missing from the
	// catalog. Callers are expected to fall back to DefaultVariantID.
	ErrUnknownVariant = errors.New("unknown vehicle variant")
)
