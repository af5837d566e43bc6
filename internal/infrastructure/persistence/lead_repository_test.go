package persistence

import (
	"testing"

	"github.com/compia/backend/internal/domain/crm"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormLeadRepository(t *testing.T) {
	repo := NewGormLeadRepository(setupTestDB(t))
	ctx := systemCtx()
	orgA, orgB := uuid.New(), uuid.New()

	alfa, err := crm.NewLead(orgA, uuid.New(), "Metalúrgica Alfa")
	require.NoError(t, err)
	require.NoError(t, alfa.SetCNPJ("11.222.333/0001-81"))
	beta, err := crm.NewLead(orgA, uuid.New(), "Padaria Beta")
	require.NoError(t, err)
	require.NoError(t, beta.MoveTo(crm.StageProposal, ""))
	gama, err := crm.NewLead(orgB, uuid.New(), "Gama Alimentos")
	require.NoError(t, err)
	for _, l := range []*crm.Lead{alfa, beta, gama} {
		require.NoError(t, repo.Save(ctx, l))
	}

	exists, err := repo.ExistsByCNPJ(ctx, orgA, "11222333000181")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByCNPJ(ctx, orgB, "11222333000181")
	require.NoError(t, err)
	assert.False(t, exists)

	list, total, err := repo.FindAll(orgCtx(orgA), crm.LeadFilter{Filter: shared.DefaultFilter(), Stage: crm.StageProposal})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, beta.ID, list[0].ID)

	assert.ErrorIs(t, repo.Delete(orgCtx(orgA), gama.ID), shared.ErrNotFound)
	require.NoError(t, repo.Delete(orgCtx(orgB), gama.ID))
}
