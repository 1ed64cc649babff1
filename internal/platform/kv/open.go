package kv

import (
	"context"
	"fmt"

	"fieldcap/internal/platform/config"
)

// Open builds the backend selected by store.backend.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.DBPath)
	case "redis":
		store := NewRedisStore(cfg.Store.RedisAddr, cfg.Store.RedisDB, cfg.Store.KeyPrefix)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
