package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Inspection", uuid.New(), uuid.New())}
}

type testHandler struct {
	types   []string
	err     error
	panics  bool
	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *testHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, e)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.types }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func startedBus(t *testing.T, log *zap.Logger) *InMemoryEventBus {
	t.Helper()
	b := NewInMemoryEventBus(log)
	require.NoError(t, b.Start(context.Background()))
	return b
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	b := startedBus(t, zap.NewNop())
	finalized := &testHandler{types: []string{"InspectionFinalized"}}
	all := &testHandler{}
	b.Subscribe(finalized)
	b.Subscribe(all)

	require.NoError(t, b.Publish(context.Background(), newTestEvent("InspectionFinalized"), newTestEvent("InspectionStarted")))

	assert.Equal(t, 1, finalized.count())
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	b := startedBus(t, zap.NewNop())
	h := &testHandler{types: []string{"A"}}
	b.Subscribe(h, "B")

	require.NoError(t, b.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	b := startedBus(t, zap.New(core))

	failing := &testHandler{err: errors.New("db down")}
	panicking := &testHandler{panics: true}
	ok := &testHandler{}
	b.Subscribe(failing)
	b.Subscribe(panicking)
	b.Subscribe(ok)

	require.NoError(t, b.Publish(context.Background(), newTestEvent("X")))

	assert.Equal(t, 1, ok.count())
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	b := startedBus(t, zap.NewNop())
	h := &testHandler{types: []string{"A"}}
	w := &testHandler{}
	b.Subscribe(h)
	b.Subscribe(w)
	b.Unsubscribe(h)
	b.Unsubscribe(w)

	require.NoError(t, b.Publish(context.Background(), newTestEvent("A")))
	assert.Zero(t, h.count())
	assert.Zero(t, w.count())
	assert.Empty(t, b.byType)
}

func TestInMemoryEventBus_DropsWhenStopped(t *testing.T) {
	b := NewInMemoryEventBus(zap.NewNop())
	h := &testHandler{}
	b.Subscribe(h)

	require.NoError(t, b.Publish(context.Background(), newTestEvent("A")))
	assert.Zero(t, h.count())

	require.NoError(t, b.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Stop(ctx))

	require.NoError(t, b.Publish(context.Background(), newTestEvent("A")))
	assert.Zero(t, h.count())
}
