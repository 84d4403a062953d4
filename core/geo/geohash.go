// Package geo provides the geodesy primitives the aggregation and prediction
// layers are built on: geohash cell encoding and great-circle distances.
//
// The geohash cell is the privacy boundary of the whole system. Exact trip
// paths are never persisted; only cell identifiers derived here are.
package geo

import (
	"math"
	"strings"
)

// DefaultPrecision yields cells of roughly 1.2 km x 0.6 km, the resolution
// all crowd aggregation is keyed on.
const DefaultPrecision = 6

const base32Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Encode returns the geohash of the coordinate at the given precision using
// iterative binary subdivision, alternating longitude and latitude bits
// starting with longitude. Equal inputs always produce equal outputs; callers
// must pre-validate coordinate ranges.
func Encode(lat, lng float64, precision int) string {
	if precision <= 0 {
		precision = DefaultPrecision
	}

	latMin, latMax := -90.0, 90.0
	lngMin, lngMax := -180.0, 180.0

	var sb strings.Builder
	sb.Grow(precision)

	idx := 0     // accumulates 5 bits per output character
	bit := 0     // bits collected so far
	even := true // true while the next bit subdivides longitude

	for sb.Len() < precision {
		if even {
			mid := (lngMin + lngMax) / 2
			if lng >= mid {
				idx = idx<<1 | 1
				lngMin = mid
			} else {
				idx <<= 1
				lngMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat >= mid {
				idx = idx<<1 | 1
				latMin = mid
			} else {
				idx <<= 1
				latMax = mid
			}
		}
		even = !even

		bit++
		if bit == 5 {
			sb.WriteByte(base32Alphabet[idx])
			bit = 0
			idx = 0
		}
	}
	return sb.String()
}

// earthRadiusKm is the mean Earth radius used for haversine distances.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points in
// kilometers using the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
