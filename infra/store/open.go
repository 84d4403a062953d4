package store

import (
	"fmt"

	"github.com/anoop-jadhav-ui/RangeIQ/core/store"
)

// Open constructs the configured backend. The returned handle owns the
// underlying resources; callers close it on shutdown.
func Open(cfg Config) (store.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
