package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("DATABASE_URL", " postgres://localhost/goaltrackr ")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres://localhost/goaltrackr", cfg.Database.URL)
	assert.True(t, cfg.UsesDefaultSecret())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "goal-events", cfg.MQ.Channel)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_BACKEND", "MinIO")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MQ_BACKEND", "rabbitmq")

	cfg := LoadConfig()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Minio.UseSSL)
	assert.Equal(t, "rabbitmq", cfg.MQ.Backend)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	assert.Equal(t, 8080, getEnvInt("SERVER_PORT", 8080))
}
