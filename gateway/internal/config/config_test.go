package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")
	clearEnv(t, "SERVICE_NAME", "GATEWAY_TIMEOUT", "GATEWAY_ADDR", "MOSGIM_SERVICE_URL", "USER_SERVICE_URL")

	_, err := Load(missing)
	assert.ErrorContains(t, err, "MOSGIM_SERVICE_URL")

	t.Setenv("MOSGIM_SERVICE_URL", "http://mosgim:8000")
	_, err = Load(missing)
	assert.ErrorContains(t, err, "USER_SERVICE_URL")

	t.Setenv("USER_SERVICE_URL", "http://users:8000")
	cfg, err := Load(missing)
	require.NoError(t, err)
	assert.Equal(t, "api-gateway", cfg.ServiceName)
	assert.Equal(t, 59*time.Second, cfg.Timeout.Std())
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_Timeout(t *testing.T) {
	t.Setenv("MOSGIM_SERVICE_URL", "http://mosgim:8000")
	t.Setenv("USER_SERVICE_URL", "http://users:8000")
	t.Setenv("GATEWAY_TIMEOUT", "5")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout.Std())
}

func TestConfig_ServerTimeoutsFollowGatewayTimeout(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Timeout.Decode("120"))

	assert.Equal(t, 120*time.Second, cfg.ReadTimeout())
	assert.Equal(t, 245*time.Second, cfg.WriteTimeout())
	assert.Greater(t, cfg.WriteTimeout(), cfg.ReadTimeout())
}

func TestLoadWorker(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")
	clearEnv(t, "SERVICE_NAME", "GATEWAY_TIMEOUT", "REDIS_ADDR", "UPLOAD_SERVICE_URL", "WORKER_CONCURRENCY")
	t.Setenv("MOSGIM_SERVICE_URL", "")
	t.Setenv("USER_SERVICE_URL", "")

	_, err := LoadWorker(missing)
	assert.ErrorContains(t, err, "REDIS_ADDR")

	t.Setenv("REDIS_ADDR", "localhost:6379")
	_, err = LoadWorker(missing)
	assert.ErrorContains(t, err, "UPLOAD_SERVICE_URL")

	t.Setenv("UPLOAD_SERVICE_URL", "http://upload:8000")
	cfg, err := LoadWorker(missing)
	require.NoError(t, err)
	assert.Equal(t, "upload-worker", cfg.ServiceName)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 59*time.Second, cfg.Timeout.Std())
}
