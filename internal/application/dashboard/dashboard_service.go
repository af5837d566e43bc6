// Package dashboard serves the aggregated home screen numbers.
package dashboard

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/dashboard"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatsCache keeps computed stats between requests
type StatsCache interface {
	Get(ctx context.Context, key string) (*dashboard.Stats, bool)
	Set(ctx context.Context, key string, stats *dashboard.Stats)
	Invalidate(ctx context.Context) error
}

// DashboardService computes scope-filtered stats
type DashboardService struct {
	reader dashboard.Reader
	cache  StatsCache
	key    func(dashboard.Query) string
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(reader dashboard.Reader, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		reader: reader,
		logger: logger,
		now:    time.Now,
	}
}

// SetCache enables caching; key must identify a query uniquely
func (s *DashboardService) SetCache(cache StatsCache, key func(dashboard.Query) string) {
	s.cache = cache
	s.key = key
}

// Stats aggregates over the caller's organizations, or over organizationID
// when given and visible
func (s *DashboardService) Stats(ctx context.Context, scope identity.AccessScope, organizationID *uuid.UUID) (*dashboard.Stats, error) {
	if err := scope.Require(identity.PermDashboardRead); err != nil {
		return nil, err
	}
	orgIDs, err := scope.Restrict(organizationID)
	if err != nil {
		return nil, err
	}
	q := dashboard.Query{OrganizationIDs: orgIDs, Now: s.now()}

	var key string
	if s.cache != nil {
		key = s.key(q)
		if stats, ok := s.cache.Get(ctx, key); ok {
			return stats, nil
		}
	}

	stats, err := s.reader.Stats(ctx, q)
	if err != nil {
		s.logger.Error("Failed to compute dashboard stats", zap.Error(err))
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, stats)
	}
	return stats, nil
}

// CacheInvalidator drops cached stats when the underlying numbers change
type CacheInvalidator struct {
	cache  StatsCache
	logger *zap.Logger
}

// NewCacheInvalidator creates the event handler
func NewCacheInvalidator(cache StatsCache, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, logger: logger}
}

// EventTypes lists the events that move dashboard numbers
func (h *CacheInvalidator) EventTypes() []string {
	return []string{
		inspection.EventTypeInspectionCreated,
		inspection.EventTypeInspectionStatusChanged,
		inspection.EventTypeInspectionFinalized,
		inspection.EventTypeInspectionReopened,
		actionplan.EventTypeActionItemCreated,
		actionplan.EventTypeActionItemStatusChanged,
		actionplan.EventTypeActionItemOverdue,
		identity.EventTypeUserCreated,
		identity.EventTypeUserStatusChanged,
	}
}

// Handle invalidates the cache; failures only cost freshness
func (h *CacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("Failed to invalidate dashboard cache",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
	return nil
}
