// Package backend opens the DataStore selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"sportstore/internal/config"
	"sportstore/internal/storage"
	"sportstore/internal/storage/jsonstore"
	"sportstore/internal/storage/memory"
	"sportstore/internal/storage/postgres"
	"sportstore/internal/storage/sqlite"
)

// Open returns the configured store.
func Open(ctx context.Context, cfg config.Config) (storage.DataStore, error) {
	var (
		store storage.DataStore
		err   error
	)
	switch cfg.StoreDriver {
	case "memory":
		return memory.New(), nil
	case "json", "":
		store, err = jsonstore.NewJSONStore(cfg.StoreDSN)
	case "sqlite":
		store, err = sqlite.Open(ctx, cfg.StoreDSN)
	case "postgres":
		store, err = postgres.Open(ctx, cfg.StoreDSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return store, nil
}

// OpenOrMemory opens the configured store and falls back to an empty
// in-memory store when it is unavailable, so the site still renders.
// degraded reports whether the fallback was taken.
func OpenOrMemory(ctx context.Context, cfg config.Config, logger *slog.Logger) (store storage.DataStore, degraded bool) {
	store, err := Open(ctx, cfg)
	if err != nil {
		logger.Warn("Store unavailable, running in memory mode", "driver", cfg.StoreDriver, "error", err)
		return memory.New(), true
	}
	logger.Info("Store opened", "driver", cfg.StoreDriver)
	return store, false
}
