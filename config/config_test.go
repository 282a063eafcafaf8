package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedded(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(embeddedConfig)))
	return v
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := load(embedded(t))
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.HTTPPort)
	assert.Equal(t, "localhost", cfg.Repositories.Postgres.Host)
	assert.Equal(t, "5432", cfg.Repositories.Postgres.Port)
	assert.Equal(t, "tracker", cfg.Repositories.Postgres.DB)
	assert.Equal(t, "change-me-in-production", cfg.JWT.SecretKey)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, DriverPostgres, cfg.Repositories.Driver)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "tracker")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "items")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := load(embedded(t))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Repositories.Postgres.Host)
	assert.Equal(t, "6543", cfg.Repositories.Postgres.Port)
	assert.Equal(t, "tracker", cfg.Repositories.Postgres.Username)
	assert.Equal(t, "s3cret", cfg.Repositories.Postgres.Password)
	assert.Equal(t, "items", cfg.Repositories.Postgres.DB)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverMemory, cfg.Repositories.Driver)
}

func TestLoadDefaultsTTLWhenUnset(t *testing.T) {
	v := viper.New()
	cfg, err := load(v)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, DriverPostgres, cfg.Repositories.Driver)
}
