package persistence

import (
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActionItem(t *testing.T, org uuid.UUID, what string, due *time.Time) *actionplan.ActionItem {
	t.Helper()
	a, err := actionplan.NewActionItem(org, uuid.New(), "", actionplan.Plan{
		What:    what,
		Why:     "NR-12",
		When:    due,
		Who:     "Manutenção",
		HowMuch: decimal.NewFromInt(350),
	}, actionplan.PriorityHigh)
	require.NoError(t, err)
	return a
}

func TestGormActionItemRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormActionItemRepository(db)
	ctx := systemCtx()
	org := uuid.New()

	now := time.Now().UTC()
	repo.now = func() time.Time { return now }
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	late := newActionItem(t, org, "Instalar proteção na prensa", &past)
	onTime := newActionItem(t, org, "Trocar extintor", &future)
	noDue := newActionItem(t, org, "Treinar equipe", nil)
	inspectionID, itemID := uuid.New(), uuid.New()
	late.LinkInspection(inspectionID, &itemID)
	require.NoError(t, repo.SaveAll(ctx, []*actionplan.ActionItem{late, onTime, noDue}))

	t.Run("round trip keeps the plan", func(t *testing.T) {
		found, err := repo.FindByID(ctx, late.ID)
		require.NoError(t, err)
		assert.Equal(t, "Instalar proteção na prensa", found.What)
		assert.Equal(t, "Manutenção", found.Who)
		assert.True(t, decimal.NewFromInt(350).Equal(found.HowMuch))
		require.NotNil(t, found.When)
		assert.WithinDuration(t, past, *found.When, time.Second)
	})

	t.Run("open items due before", func(t *testing.T) {
		due, err := repo.FindOpenDueBefore(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, late.ID, due[0].ID)

		require.True(t, late.MarkOverdue(now))
		require.NoError(t, repo.Save(ctx, late))

		due, err = repo.FindOpenDueBefore(ctx, now, 10)
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("overdue filter", func(t *testing.T) {
		list, total, err := repo.FindAll(ctx, actionplan.Filter{Filter: shared.DefaultFilter(), OverdueOnly: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, late.ID, list[0].ID)
	})

	t.Run("filter by inspection", func(t *testing.T) {
		_, total, err := repo.FindAll(ctx, actionplan.Filter{Filter: shared.DefaultFilter(), InspectionID: &inspectionID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("items with actions", func(t *testing.T) {
		other := uuid.New()
		found, err := repo.ItemIDsWithActions(ctx, []uuid.UUID{itemID, other})
		require.NoError(t, err)
		assert.True(t, found[itemID])
		assert.False(t, found[other])

		found, err = repo.ItemIDsWithActions(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, noDue.ID))
		_, err := repo.FindByID(ctx, noDue.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
