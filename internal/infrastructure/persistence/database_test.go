package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/compia/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
)

func TestOpen(t *testing.T) {
	cfg := config.DatabaseConfig{MaxOpenConns: 3, MaxIdleConns: 1, ConnMaxLifetime: 5 * time.Minute, ConnectTimeout: 5 * time.Second}

	t.Run("retries until the database answers", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockDB.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing()

		core, logs := observer.New(zap.WarnLevel)
		db, err := Open(context.Background(), postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), cfg,
			Options{Logger: zap.New(core), RetryInterval: time.Millisecond})

		require.NoError(t, err)
		require.NotNil(t, db)
		assert.Equal(t, 1, logs.FilterMessage("Database not ready, retrying").Len())

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 3, stats.MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up when the timeout elapses", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockDB.Close()
		for i := 0; i < 100; i++ {
			mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		}

		short := cfg
		short.ConnectTimeout = 30 * time.Millisecond
		_, err = Open(context.Background(), postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), short,
			Options{RetryInterval: 5 * time.Millisecond})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to database")
	})
}
