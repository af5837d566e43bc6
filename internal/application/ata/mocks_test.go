package ata

import (
	"context"
	"sync"

	"github.com/compia/backend/internal/domain/ata"
	"github.com/compia/backend/internal/domain/billing"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/llm"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/compia/backend/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memoryRepo is safe for use from worker goroutines
type memoryRepo struct {
	mu       sync.Mutex
	atas     map[uuid.UUID]ata.Ata
	sessions []rls.Session
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{atas: make(map[uuid.UUID]ata.Ata)}
}

func (r *memoryRepo) record(ctx context.Context) {
	if s, ok := rls.SessionFrom(ctx); ok {
		r.sessions = append(r.sessions, s)
	}
}

func (r *memoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*ata.Ata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(ctx)
	a, ok := r.atas[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r *memoryRepo) FindLatestByInspection(ctx context.Context, inspectionID uuid.UUID) (*ata.Ata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *ata.Ata
	for _, a := range r.atas {
		if a.InspectionID != inspectionID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			a := a
			latest = &a
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (r *memoryRepo) FindAll(ctx context.Context, filter ata.Filter) ([]ata.Ata, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ata.Ata
	for _, a := range r.atas {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *memoryRepo) FindProcessing(ctx context.Context, limit int) ([]ata.Ata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(ctx)
	var out []ata.Ata
	for _, a := range r.atas {
		if a.Status == ata.StatusProcessing && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) Save(ctx context.Context, a *ata.Ata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *a
	stored.ClearDomainEvents()
	r.atas[a.ID] = stored
	return nil
}

func (r *memoryRepo) put(a *ata.Ata) {
	_ = r.Save(context.Background(), a)
}

func (r *memoryRepo) get(id uuid.UUID) ata.Ata {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.atas[id]
}

type inspectionStub struct {
	inspections map[uuid.UUID]*inspection.Inspection
}

func (s inspectionStub) FindByID(_ context.Context, id uuid.UUID) (*inspection.Inspection, error) {
	insp, ok := s.inspections[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return insp, nil
}

type memoryItems struct {
	mu    sync.Mutex
	items map[uuid.UUID][]inspection.Item
	saved []inspection.Item
	// beforeSave runs once, ahead of the next SaveAll
	beforeSave func()
}

func (m *memoryItems) FindByInspection(_ context.Context, inspectionID uuid.UUID) ([]inspection.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]inspection.Item(nil), m.items[inspectionID]...), nil
}

// SaveAll applies the same version check as the database: an item saved
// from a stale read fails the whole call.
func (m *memoryItems) SaveAll(_ context.Context, items []inspection.Item) error {
	m.mu.Lock()
	hook := m.beforeSave
	m.beforeSave = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]int, len(items))
	for i := range items {
		stored[i] = items[i].NextVersion()
		if cur, ok := m.find(items[i].InspectionID, items[i].ID); ok && cur.Version != stored[i] {
			return shared.ErrConcurrencyConflict
		}
	}
	for i := range items {
		items[i].MarkStored()
		list := m.items[items[i].InspectionID]
		for j := range list {
			if list[j].ID == items[i].ID {
				list[j] = items[i]
			}
		}
	}
	m.saved = append(m.saved, items...)
	return nil
}

func (m *memoryItems) find(inspectionID, id uuid.UUID) (inspection.Item, bool) {
	for _, it := range m.items[inspectionID] {
		if it.ID == id {
			return it, true
		}
	}
	return inspection.Item{}, false
}

func (m *memoryItems) savedItems() []inspection.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]inspection.Item(nil), m.saved...)
}

type stubGenerator struct {
	mu       sync.Mutex
	output   string
	err      error
	requests []llm.Request
	// during runs while the model is "thinking"
	during func()
}

func (g *stubGenerator) GenerateJSON(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	during := g.during
	g.mu.Unlock()
	if during != nil {
		during()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.output, g.err
}

func (g *stubGenerator) Model() string { return "gemini-2.5-flash" }

func (g *stubGenerator) lastRequest() llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

// collectingQueue keeps submitted jobs so a test can run them inline
type collectingQueue struct {
	jobs []*scheduler.Job
	err  error
}

func (q *collectingQueue) Submit(job *scheduler.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

// MockUsageChecker is a mock implementation of UsageChecker
type MockUsageChecker struct {
	mock.Mock
}

func (m *MockUsageChecker) CheckUsage(ctx context.Context, orgID uuid.UUID, usageType billing.UsageType) error {
	args := m.Called(ctx, orgID, usageType)
	return args.Error(0)
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
