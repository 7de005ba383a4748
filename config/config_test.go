package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30*24*time.Hour, cfg.UsernameChangeCooldown)
	assert.Equal(t, 60*time.Second, cfg.OddsCacheTTL)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.DiscordEnabled())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ODDS_CACHE_TTL", "not-a-duration")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 60*time.Second, cfg.OddsCacheTTL, "invalid durations keep the default")
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
environment: test
http_port: "9090"
redis_addr: redis:6379
slip_ttl: 1h
discord_webhook_id: "123"
discord_webhook_token: abc
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REDIS_ADDR", "localhost:6380")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.SlipTTL)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr, "environment wins over file")
	assert.True(t, cfg.DiscordEnabled())
}

func TestLoad_RequiredFields(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := load()
	assert.EqualError(t, err, "DATABASE_URL is required")

	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	_, err = load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := load()
	assert.Error(t, err)
}
