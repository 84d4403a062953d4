// Package app wires configuration, storage, aggregation, prediction and the
// transports into a runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apipredict "github.com/anoop-jadhav-ui/RangeIQ/api/predict"
	apisegments "github.com/anoop-jadhav-ui/RangeIQ/api/segments"
	apitrips "github.com/anoop-jadhav-ui/RangeIQ/api/trips"
	"github.com/anoop-jadhav-ui/RangeIQ/config"
	"github.com/anoop-jadhav-ui/RangeIQ/core/crowd"
	coremetrics "github.com/anoop-jadhav-ui/RangeIQ/core/metrics"
	"github.com/anoop-jadhav-ui/RangeIQ/core/predict"
	corestore "github.com/anoop-jadhav-ui/RangeIQ/core/store"
	"github.com/anoop-jadhav-ui/RangeIQ/core/tripsync"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/logger"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/metrics"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/mqtt"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/store"
	"github.com/anoop-jadhav-ui/RangeIQ/internal/eventbus"
)

// Service owns the wired components and their lifecycle.
type Service struct {
	Store      corestore.Store
	Aggregator *crowd.Aggregator
	Predictor  *predict.Predictor
	Pipeline   *tripsync.Pipeline

	cfg *config.Config
	bus *eventbus.Bus
	sub *mqtt.Subscriber
	log logger.Logger
}

// New constructs a Service from the configuration. The store handle is opened
// here and closed by Close; nothing is lazily initialized.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics, logger.New("influx-sink")))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	agg, err := crowd.NewAggregator(st, cfg.Crowd, logger.New("crowd"), sink, bus)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("aggregator: %w", err)
	}
	predictor, err := predict.New(agg, cfg.Prediction, logger.New("predict"), sink, bus)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("predictor: %w", err)
	}
	pipeline, err := tripsync.New(st, st, agg, logger.New("tripsync"), bus)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	svc := &Service{
		Store:      st,
		Aggregator: agg,
		Predictor:  predictor,
		Pipeline:   pipeline,
		cfg:        cfg,
		bus:        bus,
		log:        logg,
	}

	if cfg.MQTT.Enabled {
		sub, err := mqtt.NewSubscriber(cfg.MQTT, pipeline, logger.New("mqtt-ingest"))
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("mqtt subscriber: %w", err)
		}
		svc.sub = sub
	}
	return svc, nil
}

// Handler returns the API mux.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/predict", apipredict.NewHandler(s.Predictor, s.log))
	mux.Handle("/api/trips/sync", apitrips.NewSyncHandler(s.Pipeline, s.log))
	mux.Handle("/api/segments", apisegments.NewHandler(s.Aggregator, s.log))
	return mux
}

// Run starts the HTTP API, the metrics endpoint and the MQTT ingestion, then
// blocks until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.sub != nil {
		go func() {
			if err := s.sub.Run(ctx); err != nil && err != context.Canceled {
				s.log.Errorf("mqtt subscriber: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infof("api listening on %s", s.cfg.Server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Close releases the store and the event bus.
func (s *Service) Close() error {
	s.bus.Close()
	return s.Store.Close()
}
