// Package metrics defines the observability sink interface the core reports
// into. Concrete sinks (Prometheus, InfluxDB) live under infra/metrics.
package metrics

// PredictionRecord describes one completed trip prediction.
type PredictionRecord struct {
	Source        string // "crowd", "model" or "mixed"
	DistanceKm    float64
	EnergyWh      float64
	WhPerKm       float64
	RangeKm       float64
	Confidence    float64
	SegmentCount  int
	CrowdSegments int
}

// IngestRecord describes one crowd aggregation attempt.
type IngestRecord struct {
	Cell      string
	VariantID string
	Result    string // "created", "updated" or "conflict"
	WhPerKm   float64
}

// Sink records prediction and ingestion events for observability purposes.
type Sink interface {
	RecordPrediction(rec PredictionRecord) error
	RecordIngest(recs []IngestRecord) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionRecord) error { return nil }
func (NopSink) RecordIngest([]IngestRecord) error       { return nil }
