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

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "SERVICE_NAME", "SERVER_ADDR", "SERVICE_PORT", "TOKEN_TTL")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/users")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "user-service", cfg.ServiceName)
	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, 8000, cfg.ServicePort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "user_events", cfg.KafkaTopic)
}

func TestLoad_RequiresSecrets(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	clearEnv(t, "DATABASE_URL", "JWT_SECRET")
	_, err := Load(missing)
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/users")
	_, err = Load(missing)
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t, "DATABASE_URL", "JWT_SECRET", "KAFKA_BROKERS")
	path := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_URL=postgres://file/users\nJWT_SECRET=from-file\nKAFKA_BROKERS=k1:9092,k2:9092\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}
