package persistence

import (
	"testing"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := systemCtx()

	orgA, orgB := uuid.New(), uuid.New()
	maria, err := identity.NewUser(orgA, "Maria@Compia.com.br", "Maria Souza", "senha1234", identity.RoleInspector)
	require.NoError(t, err)
	joao, err := identity.NewInvitedUser(orgA, "joao@compia.com.br", "João Lima", identity.RoleManager)
	require.NoError(t, err)
	ana, err := identity.NewUser(orgB, "ana@gama.com.br", "Ana Reis", "senha1234", identity.RoleClient)
	require.NoError(t, err)
	for _, u := range []*identity.User{maria, joao, ana} {
		require.NoError(t, repo.Save(ctx, u))
	}

	t.Run("find by email is case insensitive", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "  MARIA@compia.com.br")
		require.NoError(t, err)
		assert.Equal(t, maria.ID, found.ID)
		assert.True(t, found.VerifyPassword("senha1234"))

		_, err = repo.FindByEmail(ctx, "ninguem@compia.com.br")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("exists by email", func(t *testing.T) {
		exists, err := repo.ExistsByEmail(ctx, "ana@gama.com.br")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("count ignores deactivated users", func(t *testing.T) {
		count, err := repo.CountByOrganization(ctx, orgA)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		require.NoError(t, joao.Deactivate())
		require.NoError(t, repo.Save(ctx, joao))

		count, err = repo.CountByOrganization(ctx, orgA)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("list filters by role and search", func(t *testing.T) {
		f := identity.UserFilter{Filter: shared.DefaultFilter(), Role: identity.RoleInspector}
		list, total, err := repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, maria.ID, list[0].ID)

		f = identity.UserFilter{Filter: shared.DefaultFilter()}
		f.Search = "reis"
		_, total, err = repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("organization session hides other tenants", func(t *testing.T) {
		scoped := orgCtx(orgA)
		_, err := repo.FindByID(scoped, ana.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, total, err := repo.FindAll(scoped, identity.UserFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}
