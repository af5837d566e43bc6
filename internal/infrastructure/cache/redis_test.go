package cache

import (
	"context"
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/dashboard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStores(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	t.Run("idempotency", func(t *testing.T) {
		store := NewRedisIdempotencyStore(client)
		first, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		again, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, first)
		assert.False(t, again)
	})

	t.Run("tiered stats cache across instances", func(t *testing.T) {
		a := NewStores(client, time.Minute, zap.NewNop()).Tiered
		b := NewStores(client, time.Minute, zap.NewNop()).Tiered

		listenCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = b.Listen(listenCtx)
		}()
		defer func() {
			cancel()
			<-done
		}()

		a.Set(ctx, "k", &dashboard.Stats{ActiveUsers: 3})
		got, ok := b.Get(ctx, "k")
		require.True(t, ok, "instance b reads through to redis")
		assert.Equal(t, int64(3), got.ActiveUsers)

		// give b's subscription time to be registered
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, a.Invalidate(ctx))

		assert.Eventually(t, func() bool {
			_, ok := b.Get(ctx, "k")
			return !ok
		}, 2*time.Second, 20*time.Millisecond)
	})
}
