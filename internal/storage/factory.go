package storage

import (
	"context"
	"fmt"

	"aquaalert.org/aquaalert/internal/config"
)

// New creates the entity store selected by the configuration.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "couchdb":
		return NewCouch(ctx, cfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}
