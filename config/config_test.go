package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/liveplus/storage"
)

const sampleYAML = `
app:
  port: "9090"
  jwt_secret: from-file
  site_name: Live+ Teste
  allowed_origins: ["https://live.plus"]
admin:
  access_code: segredo
  token_ttl_hours: 2
storage:
  driver: memory
log:
  level: debug
backup:
  enabled: true
  schedule: "@every 1h"
share:
  base_url: https://live.plus
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	c, err := LoadFrom(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", c.AppPort)
	assert.Equal(t, "from-file", c.JWTSecret)
	assert.Equal(t, "Live+ Teste", c.SiteName)
	assert.Equal(t, []string{"https://live.plus"}, c.AllowedOrigins)
	assert.Equal(t, "segredo", c.AdminAccessCode)
	assert.Equal(t, 2, c.AdminTokenTTLHours)
	assert.Equal(t, storage.DriverMemory, c.StorageDriver)
	assert.True(t, c.BackupEnabled)
	assert.Equal(t, "@every 1h", c.BackupSchedule)
	assert.Equal(t, storage.DriverMemory, c.BackupDriver)
	assert.Equal(t, "https://live.plus", c.ShareBaseURL)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoadFromDefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("APP_PORT", "7000")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	c, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", c.JWTSecret)
	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, 30, c.RateLimitPerMinute)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, storage.DriverSQLite, c.StorageDriver)
	assert.Equal(t, "live_plus_posts_v3", c.StorageKey)
	assert.Equal(t, "Live47056453", c.AdminAccessCode)
	assert.Equal(t, 12, c.AdminTokenTTLHours)
	assert.Equal(t, 5, c.PersistTimeoutSec)
	assert.Equal(t, "http://localhost:8080", c.ShareBaseURL)
	assert.False(t, c.BackupEnabled)
}

func TestLoadFromErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "JWT_SECRET")

	_, err = LoadFrom(writeConfig(t, "app: [not, a, map"))
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "x")
	t.Setenv("REDIS_PORT", "abc")
	_, err = LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "REDIS_PORT")
}

func TestOpenStorage(t *testing.T) {
	kv, err := OpenStorage(AppConfig{StorageDriver: storage.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, kv)

	c := AppConfig{
		StorageDriver: storage.DriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "data", "liveplus.db"),
		LogLevel:      "silent",
	}
	kv, err = OpenStorage(c)
	require.NoError(t, err)
	defer kv.Close()

	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "k", []byte(`[]`)))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	_, err = OpenStorage(AppConfig{StorageDriver: "etcd"})
	assert.ErrorContains(t, err, "unknown storage driver")
}
