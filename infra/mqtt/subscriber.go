// Package mqtt receives completed-trip batches published by vehicles over
// MQTT and feeds them into the sync pipeline. This is the online ingestion
// transport; the HTTP sync endpoint covers batched offline submission.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/anoop-jadhav-ui/RangeIQ/core/logger"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/tripsync"
)

// Config defines the connection parameters for the trips subscriber.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	TripsTopic string `json:"trips_topic"`
	QoS        byte   `json:"qos"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`

	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "rangeiq-ingest"
	}
	if c.TripsTopic == "" {
		c.TripsTopic = "rangeiq/trips/+"
	}
	if c.QoS == 0 {
		c.QoS = 1
	}
}

// Validate checks mandatory fields when the subscriber is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the
// config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// tripBatch is the wire format vehicles publish.
type tripBatch struct {
	UserID string       `json:"userId"`
	Trips  []model.Trip `json:"trips"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Subscriber consumes trip batches and hands them to the pipeline.
type Subscriber struct {
	cli      pahoClient
	cfg      Config
	pipeline *tripsync.Pipeline
	log      logger.Logger
}

// NewSubscriber connects to the broker. Subscription happens on connect so
// the session survives broker restarts.
func NewSubscriber(cfg Config, pipeline *tripsync.Pipeline, log logger.Logger) (*Subscriber, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pipeline == nil {
		return nil, fmt.Errorf("mqtt: nil pipeline")
	}

	s := &Subscriber{cfg: cfg, pipeline: pipeline, log: log}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("mqtt connected, subscribing to %s", cfg.TripsTopic)
		if token := c.Subscribe(cfg.TripsTopic, cfg.QoS, s.onTrips); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("mqtt connection lost: %v", err)
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	s.cli = cli
	return s, nil
}

// Run blocks until the context is canceled, then disconnects cleanly.
func (s *Subscriber) Run(ctx context.Context) error {
	<-ctx.Done()
	s.cli.Disconnect(250)
	return ctx.Err()
}

func (s *Subscriber) onTrips(_ paho.Client, msg paho.Message) {
	var batch tripBatch
	if err := json.Unmarshal(msg.Payload(), &batch); err != nil {
		s.log.Errorf("decode trip batch on %s: %v", msg.Topic(), err)
		return
	}
	if batch.UserID == "" || len(batch.Trips) == 0 {
		s.log.Warnf("empty trip batch on %s", msg.Topic())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := s.pipeline.SyncTrips(ctx, batch.UserID, batch.Trips)
	if err != nil {
		s.log.Errorf("sync batch for %s: %v", batch.UserID, err)
		return
	}
	s.log.Debugw("trip batch synced", map[string]any{
		"user":    batch.UserID,
		"synced":  res.SyncedCount,
		"created": res.NewSegmentsCreated,
		"applied": res.CrowdUpdatesApplied,
	})
}
