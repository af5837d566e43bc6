package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database with every table migrated
func setupTestDB(t *testing.T) *rls.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return rls.New(db)
}

// setupMockDB wires a postgres dialect over sqlmock
func setupMockDB(t *testing.T) (*rls.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return rls.New(gormDB), mock, mockDB
}

func systemCtx() context.Context {
	return rls.System(context.Background())
}

func orgCtx(orgID uuid.UUID, visible ...uuid.UUID) context.Context {
	return rls.WithSession(context.Background(), rls.Session{
		OrganizationID:  orgID,
		UserID:          uuid.New(),
		Role:            string(identity.RoleManager),
		OrganizationIDs: append([]uuid.UUID{orgID}, visible...),
	})
}
