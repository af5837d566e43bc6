package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/compia/backend/internal/domain/dashboard"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StatsCache stores computed dashboard stats per query.
// Misses and backend errors look the same to callers: they recompute.
type StatsCache interface {
	Get(ctx context.Context, key string) (*dashboard.Stats, bool)
	Set(ctx context.Context, key string, stats *dashboard.Stats)
	// Invalidate drops every cached entry
	Invalidate(ctx context.Context) error
}

// StatsKey identifies a query by its organization set and calendar month
func StatsKey(q dashboard.Query) string {
	month := q.Now.Format("2006-01")
	if q.OrganizationIDs == nil {
		return "all:" + month
	}
	ids := make([]string, len(q.OrganizationIDs))
	for i, id := range q.OrganizationIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, ",")))
	return hex.EncodeToString(sum[:12]) + ":" + month
}

// MemoryStatsCache is the per-instance tier
type MemoryStatsCache struct {
	entries *gocache.Cache
}

// NewMemoryStatsCache creates a cache whose entries live for ttl
func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	return &MemoryStatsCache{entries: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryStatsCache) Get(_ context.Context, key string) (*dashboard.Stats, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	stats, ok := v.(*dashboard.Stats)
	return stats, ok
}

func (c *MemoryStatsCache) Set(_ context.Context, key string, stats *dashboard.Stats) {
	c.entries.SetDefault(key, stats)
}

func (c *MemoryStatsCache) Invalidate(_ context.Context) error {
	c.entries.Flush()
	return nil
}

const (
	statsKeyPrefix     = "compia:dashboard:"
	statsGenerationKey = "compia:dashboard:generation"
)

// RedisStatsCache is the shared tier. Invalidation bumps a generation
// counter that is part of every key, so stale entries are simply never read
// again and expire on their own.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStatsCache wraps an existing client; the caller owns it
func NewRedisStatsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStatsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStatsCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisStatsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, statsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisStatsCache) entryKey(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d:%s", statsKeyPrefix, gen, key), nil
}

func (c *RedisStatsCache) Get(ctx context.Context, key string) (*dashboard.Stats, bool) {
	k, err := c.entryKey(ctx, key)
	if err != nil {
		c.logger.Warn("Failed to read dashboard cache generation", zap.Error(err))
		return nil, false
	}
	data, err := c.client.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read dashboard cache", zap.Error(err))
		}
		return nil, false
	}
	var stats dashboard.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.logger.Warn("Discarding undecodable dashboard cache entry", zap.String("key", k), zap.Error(err))
		return nil, false
	}
	return &stats, true
}

func (c *RedisStatsCache) Set(ctx context.Context, key string, stats *dashboard.Stats) {
	k, err := c.entryKey(ctx, key)
	if err != nil {
		c.logger.Warn("Failed to read dashboard cache generation", zap.Error(err))
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, k, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write dashboard cache", zap.Error(err))
	}
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, statsGenerationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump dashboard cache generation: %w", err)
	}
	return nil
}

// TieredStatsCache reads the local tier first, then Redis. Invalidation is
// broadcast so every instance flushes its local tier.
type TieredStatsCache struct {
	local       *MemoryStatsCache
	shared      *RedisStatsCache
	invalidator *Invalidator
	logger      *zap.Logger
}

// NewTieredStatsCache combines the two tiers
func NewTieredStatsCache(local *MemoryStatsCache, shared *RedisStatsCache, invalidator *Invalidator, logger *zap.Logger) *TieredStatsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredStatsCache{local: local, shared: shared, invalidator: invalidator, logger: logger}
}

func (c *TieredStatsCache) Get(ctx context.Context, key string) (*dashboard.Stats, bool) {
	if stats, ok := c.local.Get(ctx, key); ok {
		return stats, true
	}
	stats, ok := c.shared.Get(ctx, key)
	if ok {
		c.local.Set(ctx, key, stats)
	}
	return stats, ok
}

func (c *TieredStatsCache) Set(ctx context.Context, key string, stats *dashboard.Stats) {
	c.local.Set(ctx, key, stats)
	c.shared.Set(ctx, key, stats)
}

func (c *TieredStatsCache) Invalidate(ctx context.Context) error {
	_ = c.local.Invalidate(ctx)
	if err := c.shared.Invalidate(ctx); err != nil {
		return err
	}
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Publish(ctx, InvalidationMessage{Target: TargetDashboard})
}

// Listen flushes the local tier whenever another instance invalidates.
// It blocks until ctx is done.
func (c *TieredStatsCache) Listen(ctx context.Context) error {
	if c.invalidator == nil {
		<-ctx.Done()
		return nil
	}
	return c.invalidator.Subscribe(ctx, func(msg InvalidationMessage) {
		if msg.Target != TargetDashboard {
			return
		}
		_ = c.local.Invalidate(ctx)
		c.logger.Debug("Dashboard cache flushed by peer", zap.String("origin", msg.Origin))
	})
}

var (
	_ StatsCache = (*MemoryStatsCache)(nil)
	_ StatsCache = (*RedisStatsCache)(nil)
	_ StatsCache = (*TieredStatsCache)(nil)
)
