package model

import "strings"

// TrafficDensity classifies observed or forecast traffic on a segment.
type TrafficDensity int

const (
	TrafficFreeFlow TrafficDensity = iota
	TrafficLight
	TrafficModerate
	TrafficHeavy
	TrafficCongested
)

// String returns the wire representation of the density class.
func (t TrafficDensity) String() string {
	switch t {
	case TrafficFreeFlow:
		return "free_flow"
	case TrafficLight:
		return "light"
	case TrafficModerate:
		return "moderate"
	case TrafficHeavy:
		return "heavy"
	case TrafficCongested:
		return "congested"
	default:
		return "unknown"
	}
}

// ParseTrafficDensity maps a wire string to its density class. Unknown values
// fall back to free-flow rather than failing the whole request.
func ParseTrafficDensity(s string) TrafficDensity {
	switch strings.ToLower(s) {
	case "light":
		return TrafficLight
	case "moderate":
		return TrafficModerate
	case "heavy":
		return TrafficHeavy
	case "congested":
		return TrafficCongested
	default:
		return TrafficFreeFlow
	}
}

// TrafficPattern captures the typical traffic level for a geocell at a given
// local day-of-week and hour. Level uses a 0-4 scale matching TrafficDensity.
type TrafficPattern struct {
	DayOfWeek int `json:"dayOfWeek"` // 0 = Sunday
	Hour      int `json:"hour"`      // 0-23
	Level     int `json:"level"`
}

// RoadType is a coarse road classification used for segment aggregation.
type RoadType string

const (
	RoadUrban   RoadType = "urban"
	RoadRural   RoadType = "rural"
	RoadHighway RoadType = "highway"
	RoadUnknown RoadType = "unknown"
)
