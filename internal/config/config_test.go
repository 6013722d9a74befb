package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, "flashmart_orders", cfg.MongoDB.Database)
	assert.True(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Tracing.OTLPEndpoint)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
mongodb:
  database: orders_staging
kafka:
  enabled: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "orders_staging", cfg.MongoDB.Database)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched fields keep their defaults.
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))

	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("MONGODB_DATABASE", "orders_env")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "orders_env", cfg.MongoDB.Database)
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4317", cfg.Tracing.OTLPEndpoint)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.MongoDB.URI = ""
	require.Error(t, cfg.validate())

	cfg = Default()
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil
	require.Error(t, cfg.validate())

	cfg = Default()
	cfg.Kafka.Enabled = false
	cfg.Kafka.Brokers = nil
	require.NoError(t, cfg.validate())
}
