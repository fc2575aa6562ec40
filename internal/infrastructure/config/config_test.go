package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"AFF_APP_NAME":                   os.Getenv("AFF_APP_NAME"),
		"AFF_APP_ENV":                    os.Getenv("AFF_APP_ENV"),
		"AFF_APP_PORT":                   os.Getenv("AFF_APP_PORT"),
		"AFF_DATABASE_HOST":              os.Getenv("AFF_DATABASE_HOST"),
		"AFF_DATABASE_PORT":              os.Getenv("AFF_DATABASE_PORT"),
		"AFF_DATABASE_USER":              os.Getenv("AFF_DATABASE_USER"),
		"AFF_DATABASE_PASSWORD":          os.Getenv("AFF_DATABASE_PASSWORD"),
		"AFF_DATABASE_DBNAME":            os.Getenv("AFF_DATABASE_DBNAME"),
		"AFF_DATABASE_SSLMODE":           os.Getenv("AFF_DATABASE_SSLMODE"),
		"AFF_DATABASE_MAX_OPEN_CONNS":    os.Getenv("AFF_DATABASE_MAX_OPEN_CONNS"),
		"AFF_DATABASE_MAX_IDLE_CONNS":    os.Getenv("AFF_DATABASE_MAX_IDLE_CONNS"),
		"AFF_JWT_SECRET":                 os.Getenv("AFF_JWT_SECRET"),
		"AFF_SYNC_PAGE_INTERVAL":         os.Getenv("AFF_SYNC_PAGE_INTERVAL"),
		"AFF_SYNC_RUN_TIMEOUT":           os.Getenv("AFF_SYNC_RUN_TIMEOUT"),
		"AFF_SYNC_REQUEST_TIMEOUT":       os.Getenv("AFF_SYNC_REQUEST_TIMEOUT"),
		"AFF_NETWORKS_ADMITAD_CLIENT_ID": os.Getenv("AFF_NETWORKS_ADMITAD_CLIENT_ID"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "affstack-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "affstack", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, 10*time.Minute, cfg.Sync.RunTimeout)
		assert.Equal(t, 30*time.Second, cfg.Sync.RequestTimeout)
		assert.Equal(t, 300*time.Millisecond, cfg.Sync.PageInterval)
		assert.Equal(t, 15*time.Minute, cfg.Sync.LockTTL)
		assert.Equal(t, 30, cfg.Sync.DefaultDaysBack)
	})

	t.Run("loads values from environment variables with AFF prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("AFF_APP_NAME", "test-app")
		os.Setenv("AFF_APP_PORT", "9000")
		os.Setenv("AFF_DATABASE_HOST", "testdb.local")
		os.Setenv("AFF_DATABASE_PORT", "5433")
		os.Setenv("AFF_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("AFF_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("AFF_SYNC_PAGE_INTERVAL", "1s")
		os.Setenv("AFF_NETWORKS_ADMITAD_CLIENT_ID", "client-from-env")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, time.Second, cfg.Sync.PageInterval)
		assert.Equal(t, "client-from-env", cfg.Networks.Admitad.ClientID)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("AFF_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("AFF_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates request timeout cannot exceed run timeout", func(t *testing.T) {
		clearEnv()
		os.Setenv("AFF_SYNC_RUN_TIMEOUT", "1m")
		os.Setenv("AFF_SYNC_REQUEST_TIMEOUT", "5m")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.request_timeout")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"AFF_APP_ENV":                        os.Getenv("AFF_APP_ENV"),
		"AFF_JWT_SECRET":                     os.Getenv("AFF_JWT_SECRET"),
		"AFF_DATABASE_PASSWORD":              os.Getenv("AFF_DATABASE_PASSWORD"),
		"AFF_DATABASE_SSLMODE":               os.Getenv("AFF_DATABASE_SSLMODE"),
		"AFF_NETWORKS_ADMITAD_CLIENT_ID":     os.Getenv("AFF_NETWORKS_ADMITAD_CLIENT_ID"),
		"AFF_NETWORKS_ADMITAD_CLIENT_SECRET": os.Getenv("AFF_NETWORKS_ADMITAD_CLIENT_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("AFF_APP_ENV", "production")
		os.Setenv("AFF_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("AFF_DATABASE_PASSWORD", "secure-password")
		os.Setenv("AFF_DATABASE_SSLMODE", "require")
		os.Setenv("AFF_NETWORKS_ADMITAD_CLIENT_ID", "admitad-client")
		os.Setenv("AFF_NETWORKS_ADMITAD_CLIENT_SECRET", "admitad-secret")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("AFF_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("AFF_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("AFF_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("AFF_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires admitad oauth client in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("AFF_NETWORKS_ADMITAD_CLIENT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "networks.admitad.client_id and client_secret are required")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.local", Port: 6380}
	assert.Equal(t, "redis.local:6380", cfg.Addr())
}

func TestRateOverrides(t *testing.T) {
	rates := rateOverrides(map[string]string{
		"aed": "3.6725",
		"JPY": "150",
		"bad": "not-a-number",
		"neg": "-2",
	})

	assert.Equal(t, 3.6725, rates["AED"])
	assert.Equal(t, 150.0, rates["JPY"])
	assert.NotContains(t, rates, "BAD")
	assert.NotContains(t, rates, "NEG")
}
