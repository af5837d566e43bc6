package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/compia/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockIdempotencyStore is a mock implementation of cache.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func TestIdempotentHandler_SkipsRedelivery(t *testing.T) {
	inner := &testHandler{types: []string{"InspectionFinalized"}}
	h := NewIdempotentHandler(inner, cache.NewMemoryIdempotencyStore(time.Minute), 0, zap.NewNop())
	e := newTestEvent("InspectionFinalized")
	ctx := context.Background()

	require.NoError(t, h.Handle(ctx, e))
	require.NoError(t, h.Handle(ctx, e))
	require.NoError(t, h.Handle(ctx, newTestEvent("InspectionFinalized")))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, DedupStats{Processed: 2, Duplicate: 1}, h.Stats())
	assert.Equal(t, []string{"InspectionFinalized"}, h.EventTypes())
}

func TestIdempotentHandler_StoreFailureStillHandles(t *testing.T) {
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, mock.Anything, DefaultDedupTTL).Return(false, errors.New("redis down"))
	inner := &testHandler{}
	h := NewIdempotentHandler(inner, store, 0, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), newTestEvent("UserCreated")))
	assert.Equal(t, 1, inner.count())
	store.AssertExpectations(t)
}

func TestIdempotentHandler_HandlerError(t *testing.T) {
	inner := &testHandler{err: errors.New("insert failed")}
	h := NewIdempotentHandler(inner, cache.NewMemoryIdempotencyStore(time.Minute), time.Hour, zap.NewNop())
	e := newTestEvent("UserCreated")

	assert.EqualError(t, h.Handle(context.Background(), e), "insert failed")
	require.NoError(t, h.Handle(context.Background(), e), "redelivery within the TTL is dropped")
	assert.Equal(t, 1, inner.count())
	assert.Equal(t, int64(1), h.Stats().Failed)
}
