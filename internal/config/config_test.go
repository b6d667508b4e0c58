package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGovernor = "0x00000000000000000000000000000000000000aa"

func TestLoadDefaultsInDevelopment(t *testing.T) {
	t.Setenv("GOVERNOR_ADDRESS", testGovernor)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultAppName, cfg.AppName)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, defaultShutdownDelay, cfg.ShutdownPeriod)
	assert.Equal(t, defaultIdempotencyTTL, cfg.IdempotencyTTL)
	assert.Equal(t, "GCS", cfg.TokenSymbol)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.True(t, cfg.IsDev())
}

func TestLoadRequiresGovernor(t *testing.T) {
	t.Setenv("GOVERNOR_ADDRESS", "")
	_, err := Load()
	require.ErrorContains(t, err, "GOVERNOR_ADDRESS")
}

func TestLoadRequiresBackendsOutsideDev(t *testing.T) {
	t.Setenv("GOVERNOR_ADDRESS", testGovernor)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	_, err = Load()
	require.ErrorContains(t, err, "REDIS_URL")

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	_, err = Load()
	require.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a")
	t.Setenv("REFRESH_SECRET", "b")
	_, err = Load()
	require.ErrorContains(t, err, "GOVERNOR_SECRET")

	t.Setenv("GOVERNOR_SECRET", "governor secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("GOVERNOR_ADDRESS", testGovernor)
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("SHUTDOWN_TIMEOUT", "1m")
	t.Setenv("IDEMPOTENCY_TTL", "90s")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REDIS_TIMEOUT_SECONDS", "2")
	t.Setenv("DB_MAX_CONN_LIFETIME", "30m")
	t.Setenv("DB_MAX_CONNS", "12")
	t.Setenv("REDIS_POOL_SIZE", "20")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.RedisTimeout)
	assert.Equal(t, 30*time.Minute, cfg.DBMaxConnLifetime)
	assert.EqualValues(t, 12, cfg.DBMaxConns)
	assert.Equal(t, 20, cfg.RedisPoolSize)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 90*time.Second, cfg.IdempotencyTTL)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)

	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "ten")
	_, err = Load()
	require.ErrorContains(t, err, "IDEMPOTENCY_TTL_SECONDS")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(file, []byte("GOVERNOR_ADDRESS: "+testGovernor+"\nTOKEN_SYMBOL: XCS\nEVENT_STREAM_MAXLEN: 1000\n"), 0o600))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("GOVERNOR_ADDRESS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, testGovernor, cfg.GovernorAddress)
	assert.Equal(t, "XCS", cfg.TokenSymbol)
	assert.EqualValues(t, 1000, cfg.EventStreamMaxLen)
}
