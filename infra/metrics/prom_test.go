package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/anoop-jadhav-ui/RangeIQ/core/metrics"
)

func TestPromSink_RecordPrediction(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPrediction(coremetrics.PredictionRecord{
		Source: "crowd", EnergyWh: 14500, Confidence: 0.82,
	}))
	require.NoError(t, sink.RecordPrediction(coremetrics.PredictionRecord{
		Source: "model", EnergyWh: 9000, Confidence: 0.4,
	}))
	require.NoError(t, sink.RecordPrediction(coremetrics.PredictionRecord{
		Source: "crowd", EnergyWh: 10000, Confidence: 0.9,
	}))

	require.Equal(t, 2.0, testutil.ToFloat64(sink.predictions.WithLabelValues("crowd")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.predictions.WithLabelValues("model")))
}

func TestPromSink_RecordIngest(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordIngest([]coremetrics.IngestRecord{
		{Cell: "a", Result: "created", WhPerKm: 140},
		{Cell: "a", Result: "updated", WhPerKm: 150},
		{Cell: "a", Result: "conflict", WhPerKm: 150},
	}))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.ingests.WithLabelValues("created")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.ingests.WithLabelValues("updated")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.ingests.WithLabelValues("conflict")))
}

func TestNewPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSink(reg)
	require.NoError(t, err)
	second, err := NewPromSink(reg)
	require.NoError(t, err)

	// Both sinks share the same underlying collectors.
	require.NoError(t, first.RecordPrediction(coremetrics.PredictionRecord{Source: "model"}))
	require.NoError(t, second.RecordPrediction(coremetrics.PredictionRecord{Source: "model"}))
	require.Equal(t, 2.0, testutil.ToFloat64(first.predictions.WithLabelValues("model")))
}

// failingSink always errors, for MultiSink aggregation.
type failingSink struct{}

func (failingSink) RecordPrediction(coremetrics.PredictionRecord) error {
	return fmt.Errorf("prediction boom")
}

func (failingSink) RecordIngest([]coremetrics.IngestRecord) error {
	return fmt.Errorf("ingest boom")
}

func TestMultiSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSink(reg)
	require.NoError(t, err)

	multi := NewMultiSink(prom, failingSink{})

	err = multi.RecordPrediction(coremetrics.PredictionRecord{Source: "mixed"})
	require.ErrorContains(t, err, "prediction boom")
	// The healthy sink still recorded.
	require.Equal(t, 1.0, testutil.ToFloat64(prom.predictions.WithLabelValues("mixed")))

	err = multi.RecordIngest([]coremetrics.IngestRecord{{Result: "created"}})
	require.ErrorContains(t, err, "ingest boom")
	require.Equal(t, 1.0, testutil.ToFloat64(prom.ingests.WithLabelValues("created")))
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	require.Equal(t, ":9090", cfg.PrometheusAddr)
	require.False(t, cfg.PrometheusEnabled)
}
