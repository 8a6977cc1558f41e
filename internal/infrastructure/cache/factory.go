package cache

import (
	"fmt"

	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/infrastructure/config"
)

// NewIdempotencyStore builds the idempotency store named by configuration
func NewIdempotencyStore(cfg *config.Config) (shared.IdempotencyStore, error) {
	switch cfg.Idempotency.Backend {
	case "memory":
		return NewInMemoryIdempotencyStore(), nil
	case "redis":
		return NewRedisIdempotencyStore(RedisOptions{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return nil, fmt.Errorf("unknown idempotency backend: %s", cfg.Idempotency.Backend)
	}
}
