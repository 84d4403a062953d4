package model

import (
	"fmt"
	"time"

	"github.com/anoop-jadhav-ui/RangeIQ/core/geo"
)

// RouteSegment is one leg between two consecutive route points with its
// derived geometry.
type RouteSegment struct {
	From           Coordinate `json:"from"`
	To             Coordinate `json:"to"`
	DistanceKm     float64    `json:"distanceKm"`
	ElevationGainM float64    `json:"elevationGainM"`
	ElevationLossM float64    `json:"elevationLossM"`
	AvgGradientPct float64    `json:"avgGradientPct"`
	RoadType       RoadType   `json:"roadType"`
}

// Route is an ordered sequence of points with derived segments. A route is
// immutable once built; edits produce a new Route via NewRoute.
type Route struct {
	Origin          Coordinate     `json:"origin"`
	Destination     Coordinate     `json:"destination"`
	Waypoints       []Coordinate   `json:"waypoints,omitempty"`
	Segments        []RouteSegment `json:"segments"`
	TotalDistanceKm float64        `json:"totalDistanceKm"`
	Duration        time.Duration  `json:"-"`
}

// NewRoute validates the points and derives segments with haversine distances
// and elevation deltas. It fails with ErrInvalidRoute for fewer than two
// points and ErrInvalidInput for out-of-range coordinates.
func NewRoute(origin, destination Coordinate, waypoints ...Coordinate) (Route, error) {
	points := make([]Coordinate, 0, len(waypoints)+2)
	points = append(points, origin)
	points = append(points, waypoints...)
	points = append(points, destination)
	if len(points) < 2 {
		return Route{}, ErrInvalidRoute
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return Route{}, fmt.Errorf("point %d: %w", i, err)
		}
	}

	r := Route{Origin: origin, Destination: destination, Waypoints: waypoints}
	r.Segments = make([]RouteSegment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		seg := deriveSegment(points[i-1], points[i])
		r.TotalDistanceKm += seg.DistanceKm
		r.Segments = append(r.Segments, seg)
	}
	return r, nil
}

// Points returns origin, waypoints and destination in travel order.
func (r Route) Points() []Coordinate {
	points := make([]Coordinate, 0, len(r.Waypoints)+2)
	points = append(points, r.Origin)
	points = append(points, r.Waypoints...)
	points = append(points, r.Destination)
	return points
}

func deriveSegment(from, to Coordinate) RouteSegment {
	seg := RouteSegment{From: from, To: to, RoadType: RoadUnknown}
	seg.DistanceKm = geo.DistanceKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	if from.HasElevation() && to.HasElevation() {
		delta := to.ElevationM() - from.ElevationM()
		if delta > 0 {
			seg.ElevationGainM = delta
		} else {
			seg.ElevationLossM = -delta
		}
		if seg.DistanceKm > 0 {
			seg.AvgGradientPct = delta / (seg.DistanceKm * 1000) * 100
		}
	}
	return seg
}
