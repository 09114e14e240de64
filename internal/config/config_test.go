package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SQLITE_PATH", "/tmp/h.db")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/h.db", cfg.SQLitePath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadReportsEveryMissingVariable(t *testing.T) {
	for _, k := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		assert.Contains(t, err.Error(), k)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "x")
	_, err := Load()
	assert.ErrorContains(t, err, "postgres")
}

func TestLoadBookingConfig(t *testing.T) {
	t.Setenv("CART_HOLD_TTL", "15m")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://mq:5672/")
	t.Setenv("NOTIFY_ENABLED", "yes")
	t.Setenv("NOTIFY_TIMEOUT", "bogus")

	cfg := LoadBookingConfig()
	assert.Equal(t, 15*time.Minute, cfg.HoldTTL)
	assert.Equal(t, "amqp://mq:5672/", cfg.AMQPURL)
	assert.True(t, cfg.NotifyEnabled)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "booking.events", cfg.Queue)
	assert.Equal(t, "INR", cfg.Currency)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", " get, head ,")
	t.Setenv("CACHE_ENABLED", "off")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
}

func TestLoadRedisConfigPrefersHostPort(t *testing.T) {
	t.Setenv("REDIS_ADDR", "a:1")
	t.Setenv("REDIS_HOST", "b")
	t.Setenv("REDIS_PORT", "2")
	assert.Equal(t, "b:2", LoadRedisConfig().Addr)
}

func TestLoadDotEnvKeepsProcessValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HOTEL_TEST_A=from-file\nHOTEL_TEST_B=from-file\n"), 0o600))
	t.Setenv("HOTEL_TEST_A", "from-process")
	t.Setenv("HOTEL_TEST_B", "")
	os.Unsetenv("HOTEL_TEST_B")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-process", os.Getenv("HOTEL_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("HOTEL_TEST_B"))
}
