package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores groups the caches the server wires in
type Stores struct {
	Idempotency IdempotencyStore
	Stats       StatsCache
	// Tiered is set when Redis backs the stats cache; its Listen loop must be started
	Tiered *TieredStatsCache
}

// NewStores picks Redis-backed stores when client is non-nil and falls back
// to process memory otherwise. Without Redis, instances do not share state.
func NewStores(client *redis.Client, statsTTL time.Duration, logger *zap.Logger) Stores {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		logger.Warn("Redis disabled, using in-memory caches")
		return Stores{
			Idempotency: NewMemoryIdempotencyStore(0),
			Stats:       NewMemoryStatsCache(statsTTL),
		}
	}
	tiered := NewTieredStatsCache(
		NewMemoryStatsCache(statsTTL/2),
		NewRedisStatsCache(client, statsTTL, logger),
		NewInvalidator(client, logger),
		logger,
	)
	return Stores{
		Idempotency: NewRedisIdempotencyStore(client),
		Stats:       tiered,
		Tiered:      tiered,
	}
}
