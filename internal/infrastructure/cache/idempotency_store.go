// Package cache holds the short-lived shared state of the API: processed
// event IDs and computed dashboard stats. Each store has an in-process
// implementation and a Redis one for multi-instance deployments.
package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which events were already handled
type IdempotencyStore interface {
	// MarkProcessed records eventID for ttl. It returns false when the
	// event was already recorded and has not expired.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// MemoryIdempotencyStore keeps processed IDs in process memory
type MemoryIdempotencyStore struct {
	entries *gocache.Cache
}

// NewMemoryIdempotencyStore creates a store whose expired entries are purged every cleanup interval
func NewMemoryIdempotencyStore(cleanup time.Duration) *MemoryIdempotencyStore {
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}
	return &MemoryIdempotencyStore{entries: gocache.New(gocache.NoExpiration, cleanup)}
}

// MarkProcessed uses Add, which fails while an unexpired entry exists
func (s *MemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	if err := s.entries.Add(eventID, struct{}{}, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

// Size returns the number of live entries
func (s *MemoryIdempotencyStore) Size() int {
	return s.entries.ItemCount()
}

const idempotencyKeyPrefix = "compia:event:processed:"

// RedisIdempotencyStore shares processed IDs across instances
type RedisIdempotencyStore struct {
	client *redis.Client
}

// NewRedisIdempotencyStore wraps an existing client; the caller owns it
func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

// MarkProcessed is a single SETNX with expiry
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+eventID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return ok, nil
}

var (
	_ IdempotencyStore = (*MemoryIdempotencyStore)(nil)
	_ IdempotencyStore = (*RedisIdempotencyStore)(nil)
)
