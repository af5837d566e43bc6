package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "compia-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "compia", cfg.Database.DBName)
		assert.Equal(t, 3, cfg.Database.MaxOpenConns)
		assert.Equal(t, 1, cfg.Database.MaxIdleConns)
		assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
		assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
		assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
		assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
		assert.Equal(t, 2, cfg.ATA.Workers)
		assert.Equal(t, "https://viacep.com.br/ws", cfg.Lookup.ViaCEPURL)
		assert.Equal(t, 24*time.Hour, cfg.Lookup.CacheTTL)
	})

	t.Run("loads values from environment variables with COMPIA prefix", func(t *testing.T) {
		t.Setenv("COMPIA_APP_NAME", "test-app")
		t.Setenv("COMPIA_APP_PORT", "9000")
		t.Setenv("COMPIA_DATABASE_HOST", "testdb.local")
		t.Setenv("COMPIA_DATABASE_PORT", "5433")
		t.Setenv("COMPIA_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("COMPIA_DATABASE_MAX_IDLE_CONNS", "4")
		t.Setenv("COMPIA_ATA_WORKERS", "6")
		t.Setenv("COMPIA_LOOKUP_CACHE_TTL", "1h")
		t.Setenv("COMPIA_STORAGE_BUCKET", "evidencias")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.Equal(t, 4, cfg.Database.MaxIdleConns)
		assert.Equal(t, 6, cfg.ATA.Workers)
		assert.Equal(t, time.Hour, cfg.Lookup.CacheTTL)
		assert.Equal(t, "evidencias", cfg.Storage.Bucket)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("COMPIA_DATABASE_MAX_OPEN_CONNS", "2")
		t.Setenv("COMPIA_DATABASE_MAX_IDLE_CONNS", "5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("ata requires an llm key", func(t *testing.T) {
		t.Setenv("COMPIA_ATA_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm.api_key")

		t.Setenv("COMPIA_LLM_API_KEY", "key")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.ATA.Enabled)
	})

	t.Run("metrics and profiling settings", func(t *testing.T) {
		t.Setenv("COMPIA_TELEMETRY_METRICS_ENABLED", "true")
		t.Setenv("COMPIA_TELEMETRY_LOGS_ENABLED", "true")
		t.Setenv("COMPIA_PROFILING_ENABLED", "true")
		t.Setenv("COMPIA_PROFILING_SERVER_ADDRESS", "http://pyroscope:4040")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.MetricsEnabled)
		assert.True(t, cfg.Telemetry.LogsEnabled)
		assert.Equal(t, time.Minute, cfg.Telemetry.MetricsExportInterval)
		assert.Equal(t, 15*time.Second, cfg.Telemetry.DBPoolStatsInterval)
		assert.Equal(t, "http://pyroscope:4040", cfg.Profiling.ServerAddress)
		assert.Equal(t, cfg.Telemetry.ServiceName, cfg.Profiling.ApplicationName)

		t.Setenv("COMPIA_PROFILING_SERVER_ADDRESS", "")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profiling.server_address")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		t.Setenv("COMPIA_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
	})
}

func TestLoad_Production(t *testing.T) {
	setProd := func(t *testing.T) {
		t.Setenv("COMPIA_APP_ENV", "production")
		t.Setenv("COMPIA_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("COMPIA_DATABASE_PASSWORD", "secret")
		t.Setenv("COMPIA_DATABASE_SSLMODE", "require")
	}

	t.Run("accepts secure settings", func(t *testing.T) {
		setProd(t)
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
	})

	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"short jwt secret", "COMPIA_JWT_SECRET", "short", "jwt.secret"},
		{"sslmode disable", "COMPIA_DATABASE_SSLMODE", "disable", "sslmode"},
		{"missing db password", "COMPIA_DATABASE_PASSWORD", "", "database.password"},
		{"open swagger", "COMPIA_SWAGGER_ENABLED", "true", "swagger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setProd(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "compia", SSLMode: "require"}

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/compia?sslmode=require", d.DSN())
}
