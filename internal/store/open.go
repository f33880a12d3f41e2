package store

import (
	"context"
	"fmt"

	"github.com/radieske/gold-ledger/internal/shared/cache"
	"github.com/radieske/gold-ledger/internal/shared/config"
	"github.com/radieske/gold-ledger/internal/shared/db"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Open escolhe o backend pelo STORE_BACKEND da config.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendRedis:
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		return NewRedis(rdb), nil
	case BackendPostgres:
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pg), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
