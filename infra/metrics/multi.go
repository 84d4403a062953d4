package metrics

import (
	"errors"

	coremetrics "github.com/anoop-jadhav-ui/RangeIQ/core/metrics"
)

// MultiSink fans records out to several sinks, collecting all errors.
type MultiSink struct {
	sinks []coremetrics.Sink
}

var _ coremetrics.Sink = (*MultiSink)(nil)

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordPrediction forwards to every sink.
func (m *MultiSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPrediction(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordIngest forwards to every sink.
func (m *MultiSink) RecordIngest(recs []coremetrics.IngestRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordIngest(recs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
