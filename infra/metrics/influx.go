package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	corelogger "github.com/anoop-jadhav-ui/RangeIQ/core/logger"
	coremetrics "github.com/anoop-jadhav-ui/RangeIQ/core/metrics"
)

// InfluxSink writes prediction and ingest events to InfluxDB using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      corelogger.Logger
}

var _ coremetrics.Sink = (*InfluxSink)(nil)

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string, log corelogger.Logger) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      log,
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// when the health check fails, so a broken metrics backend never blocks
// predictions or ingestion.
func NewInfluxSinkWithFallback(cfg Config, log corelogger.Logger) coremetrics.Sink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			log.Errorf("influx health check error: %v", err)
		} else {
			log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPrediction writes the prediction as a line-protocol point.
func (s *InfluxSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPoint("prediction",
		map[string]string{"source": rec.Source},
		map[string]interface{}{
			"distance_km":    rec.DistanceKm,
			"energy_wh":      rec.EnergyWh,
			"wh_per_km":      rec.WhPerKm,
			"range_km":       rec.RangeKm,
			"confidence":     rec.Confidence,
			"segments":       rec.SegmentCount,
			"crowd_segments": rec.CrowdSegments,
		},
		time.Now())
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write prediction: %v", err)
		return err
	}
	return nil
}

// RecordIngest writes one point per ingest record.
func (s *InfluxSink) RecordIngest(recs []coremetrics.IngestRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pts := make([]*write.Point, 0, len(recs))
	for _, r := range recs {
		pts = append(pts, write.NewPoint("crowd_ingest",
			map[string]string{"result": r.Result, "variant": r.VariantID},
			map[string]interface{}{"wh_per_km": r.WhPerKm},
			time.Now()))
	}
	if err := s.writeAPI.WritePoint(ctx, pts...); err != nil {
		s.log.Errorf("influx write ingest: %v", err)
		return err
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
