// Package config loads the service configuration from a JSON or YAML file
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/anoop-jadhav-ui/RangeIQ/core/crowd"
	"github.com/anoop-jadhav-ui/RangeIQ/core/predict"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/metrics"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/mqtt"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/store"
)

// ServerConfig holds the API listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig   `json:"server"`
	Store      store.Config   `json:"store"`
	MQTT       mqtt.Config    `json:"mqtt"`
	Metrics    metrics.Config `json:"metrics"`
	Crowd      crowd.Config   `json:"crowd"`
	Prediction predict.Policy `json:"prediction"`
}

// Load reads the file at path and applies RIQ_-prefixed environment
// overrides, with "__" separating nesting levels.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("RIQ_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "riq_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every section at its defaults,
// suitable for the one-shot CLI commands that run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in the per-section defaults.
func (c *Config) ApplyDefaults() {
	c.Server.SetDefaults()
	c.Store.SetDefaults()
	c.MQTT.SetDefaults()
	c.Metrics.SetDefaults()
	c.Crowd.SetDefaults()
	c.Prediction.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Crowd.Validate(); err != nil {
		return fmt.Errorf("crowd: %w", err)
	}
	if err := c.Prediction.Validate(); err != nil {
		return fmt.Errorf("prediction: %w", err)
	}
	return nil
}
