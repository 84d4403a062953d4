package model

import (
	"math"
	"time"
)

// VariantStats is the per-vehicle-variant running average inside a cell.
type VariantStats struct {
	AvgWhPerKm  float64 `json:"avgWhPerKm"`
	SampleCount int64   `json:"sampleCount"`
}

// BandStats is a secondary running average, keyed by temperature band or
// regen level.
type BandStats struct {
	AvgWhPerKm  float64 `json:"avgWhPerKm"`
	SampleCount int64   `json:"sampleCount"`
}

// AggregatedConsumption holds the running statistics of all consumption
// samples observed in a cell. No raw sample history is retained; the mean and
// variance are maintained incrementally (Welford), so SampleCount only ever
// increases and AvgWhPerKm always equals the true running mean.
type AggregatedConsumption struct {
	AvgWhPerKm  float64 `json:"avgWhPerKm"`
	MinWhPerKm  float64 `json:"minWhPerKm"`
	MaxWhPerKm  float64 `json:"maxWhPerKm"`
	SampleCount int64   `json:"sampleCount"`
	// M2 is the running sum of squared deviations from the mean, the Welford
	// accumulator StdDev derives from.
	M2 float64 `json:"m2"`

	ByVariant    map[string]VariantStats `json:"byVariant,omitempty"`
	ByTempBand   map[string]BandStats    `json:"byTempBand,omitempty"`
	ByRegenLevel map[string]BandStats    `json:"byRegenLevel,omitempty"`
}

// StdDev returns the population standard deviation of the observed samples.
func (a AggregatedConsumption) StdDev() float64 {
	if a.SampleCount < 1 {
		return 0
	}
	return math.Sqrt(a.M2 / float64(a.SampleCount))
}

// TempBand buckets an ambient temperature into the efficiency bands used for
// secondary breakdowns.
func TempBand(tempC float64) string {
	switch {
	case tempC < 0:
		return "freezing"
	case tempC < 15:
		return "cold"
	case tempC <= 30:
		return "optimal"
	case tempC <= 40:
		return "warm"
	default:
		return "hot"
	}
}

// CrowdSegment is the per-geocell aggregate of observed consumption. Segments
// are created on the first sample for a cell and updated in place afterwards;
// normal operation never deletes them.
type CrowdSegment struct {
	Cell             string                `json:"cell"`
	DistanceKm       float64               `json:"distanceKm"`
	ElevationChangeM float64               `json:"elevationChangeM"`
	RoadType         RoadType              `json:"roadType"`
	Consumption      AggregatedConsumption `json:"consumption"`
	TrafficPatterns  []TrafficPattern      `json:"trafficPatterns,omitempty"`
	SampleCount      int64                 `json:"sampleCount"`
	Confidence       float64               `json:"confidence"`
	LastUpdated      time.Time             `json:"lastUpdated"`

	// Version is the optimistic-concurrency token; conditional writes fail
	// when it no longer matches the stored value.
	Version int64 `json:"version"`
}

// TrafficPatternFor returns the pattern matching the departure's local
// day-of-week and hour, if one exists.
func (s CrowdSegment) TrafficPatternFor(t time.Time) (TrafficPattern, bool) {
	for _, p := range s.TrafficPatterns {
		if p.DayOfWeek == int(t.Weekday()) && p.Hour == t.Hour() {
			return p, true
		}
	}
	return TrafficPattern{}, false
}
