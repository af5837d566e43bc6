package inspection

import (
	"context"
	"sync"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/billing"
	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of inspection.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inspection.Inspection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspection.Inspection), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context, filter inspection.Filter) ([]inspection.Inspection, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inspection.Inspection), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Save(ctx context.Context, insp *inspection.Inspection) error {
	return m.Called(ctx, insp).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) CountCreatedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, orgID, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockItemRepository is a mock implementation of inspection.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByInspection(ctx context.Context, inspectionID uuid.UUID) ([]inspection.Item, error) {
	args := m.Called(ctx, inspectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// hand out a copy so the service can mutate it freely
	items := args.Get(0).([]inspection.Item)
	return append([]inspection.Item(nil), items...), args.Error(1)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inspection.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspection.Item), args.Error(1)
}

func (m *MockItemRepository) SaveAll(ctx context.Context, items []inspection.Item) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockItemRepository) Save(ctx context.Context, item *inspection.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockEvidenceRepository is a mock implementation of inspection.EvidenceRepository
type MockEvidenceRepository struct {
	mock.Mock
}

func (m *MockEvidenceRepository) FindMedia(ctx context.Context, inspectionID uuid.UUID) ([]inspection.Media, error) {
	args := m.Called(ctx, inspectionID)
	return args.Get(0).([]inspection.Media), args.Error(1)
}

func (m *MockEvidenceRepository) FindMediaByID(ctx context.Context, id uuid.UUID) (*inspection.Media, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspection.Media), args.Error(1)
}

func (m *MockEvidenceRepository) SaveMedia(ctx context.Context, media *inspection.Media) error {
	return m.Called(ctx, media).Error(0)
}

func (m *MockEvidenceRepository) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEvidenceRepository) FindSignatures(ctx context.Context, inspectionID uuid.UUID) ([]inspection.Signature, error) {
	args := m.Called(ctx, inspectionID)
	return args.Get(0).([]inspection.Signature), args.Error(1)
}

func (m *MockEvidenceRepository) SaveSignatures(ctx context.Context, sigs []inspection.Signature) error {
	return m.Called(ctx, sigs).Error(0)
}

type MockTemplateFinder struct {
	mock.Mock
}

func (m *MockTemplateFinder) FindByID(ctx context.Context, id uuid.UUID) (*checklist.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checklist.Template), args.Error(1)
}

type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

type MockUsageChecker struct {
	mock.Mock
}

func (m *MockUsageChecker) CheckUsage(ctx context.Context, orgID uuid.UUID, usageType billing.UsageType) error {
	return m.Called(ctx, orgID, usageType).Error(0)
}

type MockActionItemDrafts struct {
	mock.Mock
}

func (m *MockActionItemDrafts) ItemIDsWithActions(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, itemIDs)
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

func (m *MockActionItemDrafts) SaveAll(ctx context.Context, items []*actionplan.ActionItem) error {
	return m.Called(ctx, items).Error(0)
}

// countingTx runs fn inline and counts transactions
type countingTx struct {
	n int
}

func (c *countingTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	c.n++
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
