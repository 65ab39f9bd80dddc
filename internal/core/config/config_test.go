package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_DefaultsWithoutFile(t *testing.T) {
	c, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, 800*time.Millisecond, c.Mock.Latency())
	assert.InDelta(t, 0.1, c.Mock.FailureRate, 1e-9)
	assert.Equal(t, "length", c.Mock.IDStrategy)
	assert.Equal(t, "admin", c.Admin.Username)
}

func TestRead_EnvWithoutFile(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "env-secret")
	t.Setenv("APP_REDIS_ADDR", "redis:6379")
	t.Setenv("APP_ADMIN_PASSWORD_HASH", "$2a$10$abc")
	t.Setenv("APP_MOCK_SEED", "42")
	t.Setenv("APP_LOG_FILE_ENABLE", "true")

	c, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", c.JWT.Secret)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.Equal(t, "$2a$10$abc", c.Admin.PasswordHash)
	assert.Equal(t, int64(42), c.Mock.Seed)
	assert.True(t, c.Log.File.Enable)
}

func TestRead_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  http:
    port: 9090
    cors_origins: ["http://localhost:5173"]
mock:
  latency_ms: 25
  id_strategy: sequence
redis:
  addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("APP_MOCK_FAILURE_RATE", "0.5")

	c, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, c.App.HTTP.CORSOrigins)
	assert.Equal(t, 25*time.Millisecond, c.Mock.Latency())
	assert.Equal(t, "sequence", c.Mock.IDStrategy)
	assert.InDelta(t, 0.5, c.Mock.FailureRate, 1e-9)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
	assert.Equal(t, 30, c.Redis.TTLSec)
}

func TestRead_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))

	_, err := Read(path)
	require.Error(t, err)
}
