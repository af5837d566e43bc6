package persistence

import (
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInspection(t *testing.T, org uuid.UUID, title string) *inspection.Inspection {
	t.Helper()
	insp, err := inspection.NewInspection(org, uuid.New(), title)
	require.NoError(t, err)
	return insp
}

func TestGormInspectionRepository_SaveAndFind(t *testing.T) {
	repo := NewGormInspectionRepository(setupTestDB(t))
	ctx := systemCtx()
	org := uuid.New()

	insp := newInspection(t, org, "Vistoria galpão 3")
	insp.CompanyName = "Metalúrgica Beta"
	insp.Address = valueobject.Address{Street: "Rua das Flores", City: "Curitiba", State: "PR"}
	insp.Geo = &valueobject.GeoPoint{Latitude: -25.43, Longitude: -49.27}
	score := decimal.RequireFromString("87.5")
	insp.ComplianceScore = &score
	require.NoError(t, repo.Save(ctx, insp))

	found, err := repo.FindByID(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vistoria galpão 3", found.Title)
	assert.Equal(t, "Curitiba", found.Address.City)
	require.NotNil(t, found.Geo)
	assert.InDelta(t, -25.43, found.Geo.Latitude, 1e-9)
	assert.True(t, score.Equal(*found.ComplianceScore))

	insp.Title = "Vistoria galpão 3A"
	insp.IncrementVersion()
	require.NoError(t, repo.Save(ctx, insp))
	found, err = repo.FindByID(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vistoria galpão 3A", found.Title)
	assert.Equal(t, insp.Version, found.Version)
}

func TestGormInspectionRepository_FindAll(t *testing.T) {
	repo := NewGormInspectionRepository(setupTestDB(t))
	ctx := systemCtx()
	orgA, orgB := uuid.New(), uuid.New()
	inspector := uuid.New()

	a1 := newInspection(t, orgA, "Caldeira")
	require.NoError(t, a1.AssignInspector(inspector, "Maria"))
	a2 := newInspection(t, orgA, "Empilhadeiras")
	b1 := newInspection(t, orgB, "Caldeira B")
	for _, i := range []*inspection.Inspection{a1, a2, b1} {
		require.NoError(t, repo.Save(ctx, i))
	}

	t.Run("scoped by organization list", func(t *testing.T) {
		list, total, err := repo.FindAll(ctx, inspection.Filter{Filter: shared.DefaultFilter(), OrganizationIDs: []uuid.UUID{orgA}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, list, 2)
	})

	t.Run("by inspector", func(t *testing.T) {
		list, _, err := repo.FindAll(ctx, inspection.Filter{Filter: shared.DefaultFilter(), InspectorID: &inspector})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, a1.ID, list[0].ID)
	})

	t.Run("search", func(t *testing.T) {
		f := inspection.Filter{Filter: shared.DefaultFilter()}
		f.Search = "caldeira"
		_, total, err := repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("session from another tenant sees nothing", func(t *testing.T) {
		_, total, err := repo.FindAll(orgCtx(uuid.New()), inspection.Filter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("count created since", func(t *testing.T) {
		count, err := repo.CountCreatedSince(ctx, orgA, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		count, err = repo.CountCreatedSince(ctx, orgA, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestGormInspectionItemRepository(t *testing.T) {
	db := setupTestDB(t)
	inspections := NewGormInspectionRepository(db)
	repo := NewGormInspectionItemRepository(db)
	ctx := systemCtx()
	org := uuid.New()

	insp := newInspection(t, org, "Vistoria")
	require.NoError(t, inspections.Save(ctx, insp))

	tpl := newTemplate(t, &org, "Base", "Extintor", "Saída de emergência", "Iluminação")
	items := inspection.ItemsFromTemplate(insp, tpl)
	require.NoError(t, repo.SaveAll(ctx, items))

	stored, err := repo.FindByInspection(ctx, insp.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "Extintor", stored[0].Description)
	assert.NotNil(t, stored[0].FieldID)

	yes := true
	item := stored[1]
	require.NoError(t, item.Evaluate(inspection.Answer{IsCompliant: &yes, Observations: "sinalizada"}, uuid.New(), time.Now()))
	require.NoError(t, repo.Save(ctx, &item))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, found.IsCompliant)
	assert.True(t, *found.IsCompliant)
	assert.Equal(t, "sinalizada", found.Observations)

	adhoc, err := inspection.NewItem(insp, "Extra", "Piso escorregadio", checklist.FieldTypeBoolean, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, adhoc))
	require.NoError(t, repo.Delete(ctx, adhoc.ID))
	assert.ErrorIs(t, repo.Delete(ctx, adhoc.ID), shared.ErrNotFound)
}

func TestGormInspectionRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	inspections := NewGormInspectionRepository(db)
	items := NewGormInspectionItemRepository(db)
	evidence := NewGormEvidenceRepository(db)
	ctx := systemCtx()

	insp := newInspection(t, uuid.New(), "Vistoria")
	require.NoError(t, inspections.Save(ctx, insp))
	item, err := inspection.NewItem(insp, "", "Extintor", "", 1)
	require.NoError(t, err)
	require.NoError(t, items.Save(ctx, item))
	media, err := inspection.NewMedia(insp, &item.ID, "foto.jpg", "image/jpeg", 2048, uuid.New())
	require.NoError(t, err)
	require.NoError(t, evidence.SaveMedia(ctx, media))

	require.NoError(t, inspections.Delete(ctx, insp.ID))

	_, err = inspections.FindByID(ctx, insp.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	left, err := items.FindByInspection(ctx, insp.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	_, err = evidence.FindMediaByID(ctx, media.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, inspections.Delete(ctx, insp.ID), shared.ErrNotFound)
}

func TestGormEvidenceRepository_Signatures(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormEvidenceRepository(db)
	ctx := systemCtx()

	insp := newInspection(t, uuid.New(), "Vistoria")
	now := time.Now().UTC()
	first, err := inspection.NewSignature(insp, inspection.SignatureInspector, "Maria", "Técnica", "sig/1.png", now)
	require.NoError(t, err)
	responsible, err := inspection.NewSignature(insp, inspection.SignatureResponsible, "Carlos", "Gerente", "sig/2.png", now)
	require.NoError(t, err)
	require.NoError(t, repo.SaveSignatures(ctx, []inspection.Signature{*first, *responsible}))

	again, err := inspection.NewSignature(insp, inspection.SignatureInspector, "Maria Souza", "Técnica", "sig/3.png", now.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.SaveSignatures(ctx, []inspection.Signature{*again}))

	sigs, err := repo.FindSignatures(ctx, insp.ID)
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	byKind := map[inspection.SignatureKind]inspection.Signature{}
	for _, s := range sigs {
		byKind[s.Kind] = s
	}
	assert.Equal(t, "Maria Souza", byKind[inspection.SignatureInspector].SignerName)
	assert.Equal(t, "sig/3.png", byKind[inspection.SignatureInspector].StorageKey)
	assert.Equal(t, "Carlos", byKind[inspection.SignatureResponsible].SignerName)
}

func TestGormInspectionRepository_StaleWritesConflict(t *testing.T) {
	db := setupTestDB(t)
	inspections := NewGormInspectionRepository(db)
	items := NewGormInspectionItemRepository(db)
	ctx := systemCtx()

	insp := newInspection(t, uuid.New(), "Vistoria caldeira")
	require.NoError(t, inspections.Save(ctx, insp))

	t.Run("saving an old copy after a cancel", func(t *testing.T) {
		current, err := inspections.FindByID(ctx, insp.ID)
		require.NoError(t, err)
		stale, err := inspections.FindByID(ctx, insp.ID)
		require.NoError(t, err)

		require.NoError(t, current.Cancel())
		require.NoError(t, inspections.Save(ctx, current))

		stale.Title = "Vistoria caldeira 2"
		stale.IncrementVersion()
		err = inspections.Save(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		found, err := inspections.FindByID(ctx, insp.ID)
		require.NoError(t, err)
		assert.Equal(t, inspection.StatusCancelled, found.Status)
		assert.Equal(t, "Vistoria caldeira", found.Title)
		assert.Equal(t, current.Version, found.Version)
	})

	t.Run("suggestion from an old read of the checklist", func(t *testing.T) {
		fresh, err := inspection.NewItem(insp, "NR-23", "Extintores dentro da validade", checklist.FieldTypeBoolean, 0)
		require.NoError(t, err)
		require.NoError(t, items.SaveAll(ctx, []inspection.Item{*fresh}))

		snapshot, err := items.FindByInspection(ctx, insp.ID)
		require.NoError(t, err)
		answered, err := items.FindByID(ctx, fresh.ID)
		require.NoError(t, err)

		no := false
		require.NoError(t, answered.Evaluate(inspection.Answer{IsCompliant: &no, Observations: "vencido"}, uuid.New(), time.Now()))
		require.NoError(t, items.Save(ctx, answered))

		yes := true
		require.True(t, snapshot[0].ApplySuggestion(&yes, "Parece em dia"))
		err = items.SaveAll(ctx, snapshot)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		found, err := items.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		require.NotNil(t, found.IsCompliant)
		assert.False(t, *found.IsCompliant)
		assert.Equal(t, "vencido", found.Observations)
		assert.False(t, found.AIAssisted)

		// a re-read picks up the answer and may be written
		reread, err := items.FindByInspection(ctx, insp.ID)
		require.NoError(t, err)
		assert.False(t, reread[0].ApplySuggestion(&yes, "Parece em dia"))
		require.NoError(t, items.SaveAll(ctx, reread))
	})
}
