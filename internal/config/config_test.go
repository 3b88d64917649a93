package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMongoDB, cfg.Store.Backend)
	assert.Equal(t, "rapitienda", cfg.MongoDB.Database)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 5, cfg.Report.TopSellers)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
environment: staging
server:
  addr: ":9090"
  readTimeout: 5s
store:
  backend: memory
redis:
  enabled: true
  addr: "redis:6379"
  ttl: 1h
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
retry:
  maxAttempts: 5
  initialDelay: 250ms
report:
  timeZone: UTC
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	// untouched sections keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialDelay)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	assert.Error(t, cfg.LoadFile(path))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\nlogging:\n  level: warn\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("STORE_BACKEND", "MEMORY")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("REDIS_ENABLED", "not-a-bool")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REPORT_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, logging.LevelWarn, cfg.LoggerConfig().Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "postgres" }},
		{name: "missing mongo uri", mutate: func(c *Config) { c.MongoDB.URI = "" }},
		{name: "missing mongo database", mutate: func(c *Config) { c.MongoDB.Database = "" }},
		{name: "zero attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{name: "kafka without brokers", mutate: func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}},
		{name: "bad time zone", mutate: func(c *Config) { c.Report.TimeZone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_MemoryIgnoresMongo(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendMemory
	cfg.MongoDB.URI = ""
	assert.NoError(t, cfg.Validate())
}

func TestConverters(t *testing.T) {
	cfg := Default()
	cfg.Version = "1.4.0"
	cfg.Tracing.Enabled = true
	cfg.Retry.MaxAttempts = 4

	policy := cfg.RetryPolicy()
	assert.Equal(t, 4, policy.MaxAttempts)
	assert.Equal(t, cfg.Retry.MaxDelay, policy.MaxDelay)

	tc := cfg.TracerConfig()
	assert.True(t, tc.Enabled)
	assert.Equal(t, ServiceName, tc.ServiceName)
	assert.Equal(t, "1.4.0", tc.ServiceVersion)
	assert.Equal(t, "localhost:4317", tc.OTLPEndpoint)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", loc.String())
}
