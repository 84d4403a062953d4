// Package store provides the concrete persistence backends: an in-memory
// store for tests and single-process use, and a SQLite store for durable
// deployments. Both satisfy the core store contract, including conditional
// segment writes keyed on the version token.
package store

import "fmt"

// Config selects and parameterizes the backend.
type Config struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the SQLite database file; ignored by the memory backend.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "rangeiq.db"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
	if c.Backend == "sqlite" && c.Path == "" {
		return fmt.Errorf("sqlite backend requires a path")
	}
	return nil
}
