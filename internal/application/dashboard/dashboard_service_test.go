package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/dashboard"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockReader is a mock implementation of dashboard.Reader
type MockReader struct {
	mock.Mock
}

func (m *MockReader) Stats(ctx context.Context, q dashboard.Query) (*dashboard.Stats, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Stats), args.Error(1)
}

var fixedNow = time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC)

func newService(reader dashboard.Reader) *DashboardService {
	svc := NewDashboardService(reader, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestDashboardService_Stats_Scope(t *testing.T) {
	parent, child, other := uuid.New(), uuid.New(), uuid.New()
	manager := identity.NewAccessScope(uuid.New(), parent, identity.RoleOrgAdmin, []uuid.UUID{child})

	t.Run("defaults to every visible organization", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("Stats", mock.Anything, mock.MatchedBy(func(q dashboard.Query) bool {
			return assert.ElementsMatch(t, []uuid.UUID{parent, child}, q.OrganizationIDs) && q.Now.Equal(fixedNow)
		})).Return(&dashboard.Stats{TotalInspections: 4}, nil).Once()

		stats, err := newService(reader).Stats(context.Background(), manager, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.TotalInspections)
		reader.AssertExpectations(t)
	})

	t.Run("narrows to one child organization", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("Stats", mock.Anything, dashboard.Query{OrganizationIDs: []uuid.UUID{child}, Now: fixedNow}).
			Return(&dashboard.Stats{}, nil).Once()

		_, err := newService(reader).Stats(context.Background(), manager, &child)

		require.NoError(t, err)
		reader.AssertExpectations(t)
	})

	t.Run("rejects an organization outside the scope", func(t *testing.T) {
		reader := new(MockReader)
		_, err := newService(reader).Stats(context.Background(), manager, &other)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		reader.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything)
	})

	t.Run("sys admin without filter aggregates over everything", func(t *testing.T) {
		reader := new(MockReader)
		admin := identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleSysAdmin, nil)
		reader.On("Stats", mock.Anything, dashboard.Query{Now: fixedNow}).Return(&dashboard.Stats{}, nil).Once()

		_, err := newService(reader).Stats(context.Background(), admin, nil)

		require.NoError(t, err)
		reader.AssertExpectations(t)
	})
}

func TestDashboardService_Stats_Cache(t *testing.T) {
	orgID := uuid.New()
	scope := identity.NewAccessScope(uuid.New(), orgID, identity.RoleManager, nil)
	reader := new(MockReader)
	reader.On("Stats", mock.Anything, mock.Anything).Return(&dashboard.Stats{ActiveUsers: 2}, nil).Twice()

	stats := cache.NewMemoryStatsCache(time.Minute)
	svc := newService(reader)
	svc.SetCache(stats, cache.StatsKey)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.Stats(ctx, scope, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ActiveUsers)
	}
	reader.AssertNumberOfCalls(t, "Stats", 1)

	invalidator := NewCacheInvalidator(stats, zap.NewNop())
	assert.Contains(t, invalidator.EventTypes(), inspection.EventTypeInspectionFinalized)
	ev := shared.NewBaseDomainEvent(inspection.EventTypeInspectionFinalized, inspection.AggregateTypeInspection, uuid.New(), orgID)
	require.NoError(t, invalidator.Handle(ctx, &ev))

	_, err := svc.Stats(ctx, scope, nil)
	require.NoError(t, err)
	reader.AssertNumberOfCalls(t, "Stats", 2)
}

func TestDashboardService_Stats_Errors(t *testing.T) {
	client := identity.NewAccessScope(uuid.New(), uuid.New(), identity.Role("unknown"), nil)
	_, err := newService(new(MockReader)).Stats(context.Background(), client, nil)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	reader := new(MockReader)
	reader.On("Stats", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	scope := identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleInspector, nil)
	_, err = newService(reader).Stats(context.Background(), scope, nil)
	assert.EqualError(t, err, "db down")
}
