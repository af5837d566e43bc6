// Package integration runs the persistence layer against a real Postgres
// started with testcontainers, so the row-level security policies are in play.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/infrastructure/migration"
	"github.com/compia/backend/internal/infrastructure/persistence"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"go.uber.org/zap"
)

const (
	appRole     = "compia_app"
	appPassword = "compia_app"
)

// TestDB is one migrated database. Owner connects as the table owner and
// bypasses the policies; App connects as a plain role the policies apply to.
type TestDB struct {
	Owner     *gorm.DB
	App       *rls.DB
	Container testcontainers.Container
	t         *testing.T
}

// NewTestDB starts a fresh Postgres container, applies the embedded
// migrations and creates the application role.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("compia_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	ownerDSN, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	sqlDB, err := sql.Open("postgres", ownerDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")

	owner := connect(t, ownerDSN)
	require.NoError(t, owner.Exec(fmt.Sprintf(`CREATE ROLE %s LOGIN PASSWORD '%s'`, appRole, appPassword)).Error)
	require.NoError(t, owner.Exec(fmt.Sprintf(`GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO %s`, appRole)).Error)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	appDSN := fmt.Sprintf("postgres://%s:%s@%s:%s/compia_test?sslmode=disable", appRole, appPassword, host, port.Port())

	return &TestDB{
		Owner:     owner,
		App:       rls.New(connect(t, appDSN)),
		Container: container,
		t:         t,
	}
}

func connect(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	cfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), cfg)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateOrganization saves an organization through the application role
func (tdb *TestDB) CreateOrganization(name string, orgType identity.OrganizationType, parentID *uuid.UUID) *identity.Organization {
	tdb.t.Helper()
	org, err := identity.NewOrganization(name, orgType, parentID)
	require.NoError(tdb.t, err)
	repo := persistence.NewGormOrganizationRepository(tdb.App)
	require.NoError(tdb.t, repo.Save(rls.System(context.Background()), org))
	return org
}

// Session returns a ctx bound to a restricted session in orgID
func Session(orgID uuid.UUID, role identity.Role, visible ...uuid.UUID) context.Context {
	scope := identity.NewAccessScope(uuid.New(), orgID, role, visible)
	return rls.WithSession(context.Background(), rls.FromScope(scope))
}

// CountRaw counts rows of table as seen by the session on ctx. Raw SQL skips
// the GORM guard, so only the database policies filter the result.
func (tdb *TestDB) CountRaw(ctx context.Context, table string) int64 {
	tdb.t.Helper()
	var n int64
	err := tdb.App.Run(ctx, func(tx *gorm.DB) error {
		return tx.Raw("SELECT COUNT(*) FROM " + table).Scan(&n).Error
	})
	require.NoError(tdb.t, err)
	return n
}
