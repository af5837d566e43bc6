package actionplan

import (
	"context"
	"errors"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"go.uber.org/zap"
)

const defaultSweepBatch = 500

// OverdueStats summarizes one sweep
type OverdueStats struct {
	Checked     int       `json:"checked"`
	Flagged     int       `json:"flagged"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	ProcessedAt time.Time `json:"processed_at"`
}

// OverdueService flags open action items whose deadline has passed.
// It runs across every organization, so it binds the system session.
type OverdueService struct {
	repo   actionplan.Repository
	events shared.EventPublisher
	logger *zap.Logger
	batch  int
	now    func() time.Time
}

// NewOverdueService creates a new overdue sweeper
func NewOverdueService(repo actionplan.Repository, events shared.EventPublisher, logger *zap.Logger) *OverdueService {
	return &OverdueService{
		repo:   repo,
		events: events,
		logger: logger,
		batch:  defaultSweepBatch,
		now:    time.Now,
	}
}

// MarkOverdue flags every overdue item, batch by batch
func (s *OverdueService) MarkOverdue(ctx context.Context) (*OverdueStats, error) {
	ctx = rls.System(ctx)
	now := s.now()
	stats := &OverdueStats{ProcessedAt: now}

	for {
		due, err := s.repo.FindOpenDueBefore(ctx, now, s.batch)
		if err != nil {
			s.logger.Error("Failed to find overdue action items", zap.Error(err))
			return stats, err
		}
		stats.Checked += len(due)

		flagged := 0
		for i := range due {
			a := &due[i]
			if !a.MarkOverdue(now) {
				continue
			}
			err := s.repo.Save(ctx, a)
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				// changed since it was read; the next sweep looks again
				stats.Skipped++
				continue
			}
			if err != nil {
				stats.Failed++
				s.logger.Error("Failed to flag overdue action item",
					zap.String("action_item_id", a.ID.String()),
					zap.Error(err))
				continue
			}
			flagged++
			if err := shared.PublishAndClear(ctx, s.events, a); err != nil {
				s.logger.Warn("Failed to publish overdue event", zap.Error(err))
			}
		}
		stats.Flagged += flagged

		// a short page, or a page where nothing could be saved, ends the sweep
		if len(due) < s.batch || flagged == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
	}

	if stats.Flagged > 0 || stats.Failed > 0 {
		s.logger.Info("Overdue action items swept",
			zap.Int("flagged", stats.Flagged),
			zap.Int("failed", stats.Failed))
	}
	return stats, nil
}
