package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// DefaultDedupTTL is how long a handled event ID is remembered
const DefaultDedupTTL = 24 * time.Hour

// DedupStats counts what an IdempotentHandler did
type DedupStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler runs the wrapped handler at most once per event ID.
// If the store is unreachable the event is handled anyway.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   cache.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler wraps handler; a ttl of zero uses DefaultDedupTTL
func NewIdempotentHandler(handler shared.EventHandler, store cache.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

func (h *IdempotentHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	eventID := e.EventID().String()

	isNew, err := h.store.MarkProcessed(ctx, eventID, h.ttl)
	if err != nil {
		h.logger.Warn("idempotency check failed, handling anyway",
			zap.String("event_id", eventID),
			zap.String("event_type", e.EventType()),
			zap.Error(err),
		)
	} else if !isNew {
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", eventID),
			zap.String("event_type", e.EventType()),
		)
		return nil
	}

	// The key is kept on failure; a redelivery waits for the TTL.
	if err := h.handler.Handle(ctx, e); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() DedupStats {
	return DedupStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
