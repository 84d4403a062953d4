package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/anoop-jadhav-ui/RangeIQ/core/metrics"
)

// PromSink records prediction and ingest events in Prometheus metrics.
type PromSink struct {
	predictions   *prometheus.CounterVec
	predictedWh   prometheus.Histogram
	confidence    prometheus.Histogram
	ingests       *prometheus.CounterVec
	sampleWhPerKm prometheus.Histogram
}

var _ coremetrics.Sink = (*PromSink)(nil)

// NewPromSink registers the collectors on the provided registerer. If reg is
// nil, the default registerer is used. Already-registered collectors are
// reused so repeated construction is safe.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rangeiq_predictions_total",
			Help: "Total number of trip predictions by estimate source",
		}, []string{"source"}),
		predictedWh: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangeiq_predicted_energy_wh",
			Help:    "Predicted per-trip energy consumption",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12),
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangeiq_prediction_confidence",
			Help:    "Prediction confidence distribution",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rangeiq_crowd_ingests_total",
			Help: "Total number of crowd aggregation attempts by result",
		}, []string{"result"}),
		sampleWhPerKm: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangeiq_crowd_sample_wh_per_km",
			Help:    "Observed consumption samples fed into the aggregator",
			Buckets: prometheus.LinearBuckets(50, 25, 16),
		}),
	}

	collectors := []prometheus.Collector{
		s.predictions, s.predictedWh, s.confidence, s.ingests, s.sampleWhPerKm,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				s.predictions = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				s.predictedWh = are.ExistingCollector.(prometheus.Histogram)
			case 2:
				s.confidence = are.ExistingCollector.(prometheus.Histogram)
			case 3:
				s.ingests = are.ExistingCollector.(*prometheus.CounterVec)
			case 4:
				s.sampleWhPerKm = are.ExistingCollector.(prometheus.Histogram)
			}
		}
	}
	return s, nil
}

// RecordPrediction increments the prediction counters and histograms.
func (s *PromSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	s.predictions.WithLabelValues(rec.Source).Inc()
	s.predictedWh.Observe(rec.EnergyWh)
	s.confidence.Observe(rec.Confidence)
	return nil
}

// RecordIngest increments the ingest counter per record.
func (s *PromSink) RecordIngest(recs []coremetrics.IngestRecord) error {
	for _, r := range recs {
		s.ingests.WithLabelValues(r.Result).Inc()
		if r.Result != "conflict" {
			s.sampleWhPerKm.Observe(r.WhPerKm)
		}
	}
	return nil
}
