package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "KAFKA_ADDR", "IDEMPOTENCY_TTL", "MIGRATE_ON_START", "RELAY_BATCH_SIZE"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, 100, cfg.RelayBatchSize)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("KAFKA_ADDR", "k1:9092, k2:9092,")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("IDEMPOTENCY_TTL", "forever")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "IDEMPOTENCY_TTL")

	t.Setenv("IDEMPOTENCY_TTL", "")
	t.Setenv("RELAY_BATCH_SIZE", "lots")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "RELAY_BATCH_SIZE")
}

func TestDotEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OUTBOX_TOPIC=from-file\nGRPC_ADDR=:7000\n"), 0o600))
	t.Setenv("OUTBOX_TOPIC", "from-env")
	t.Setenv("GRPC_ADDR", "")
	require.NoError(t, os.Unsetenv("GRPC_ADDR"))

	require.NoError(t, godotenv.Load(path))
	t.Cleanup(func() { _ = os.Unsetenv("GRPC_ADDR") })

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OutboxTopic)
	assert.Equal(t, ":7000", cfg.GRPCAddr)
}
