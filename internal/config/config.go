package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/kafka"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/mongodb"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/outbox"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/tracing"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/infrastructure/cache"
)

// Store backends
const (
	BackendMongoDB = "mongodb"
	BackendMemory  = "memory"
)

// ServiceName identifies the stock ledger in logs, metrics and traces
const ServiceName = "stock-ledger"

// Config holds application configuration
type Config struct {
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`

	Server  ServerConfig           `yaml:"server"`
	Store   StoreConfig            `yaml:"store"`
	MongoDB mongodb.Config         `yaml:"mongodb"`
	Redis   RedisConfig            `yaml:"redis"`
	Kafka   KafkaConfig            `yaml:"kafka"`
	Outbox  outbox.PublisherConfig `yaml:"outbox"`
	Tracing TracingConfig          `yaml:"tracing"`
	Logging LoggingConfig          `yaml:"logging"`
	Retry   RetryConfig            `yaml:"retry"`
	Report  ReportConfig           `yaml:"report"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// StoreConfig selects the document store implementation
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

// RedisConfig configures the report cache; disabled means no caching
type RedisConfig struct {
	Enabled      bool `yaml:"enabled"`
	cache.Config `yaml:",inline"`
}

// KafkaConfig configures the outbox relay; disabled means events stay in the outbox
type KafkaConfig struct {
	Enabled      bool `yaml:"enabled"`
	kafka.Config `yaml:",inline"`
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetryConfig is the retry schedule applied to plain store calls
type RetryConfig struct {
	MaxAttempts   int           `yaml:"maxAttempts"`
	InitialDelay  time.Duration `yaml:"initialDelay"`
	MaxDelay      time.Duration `yaml:"maxDelay"`
	BackoffFactor float64       `yaml:"backoffFactor"`
}

// ReportConfig configures the daily summary
type ReportConfig struct {
	TimeZone   string `yaml:"timeZone"`
	TopSellers int    `yaml:"topSellers"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Environment: "development",
		Version:     "dev",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store:   StoreConfig{Backend: BackendMongoDB},
		MongoDB: *mongodb.DefaultConfig(),
		Redis: RedisConfig{
			Config: cache.Config{Addr: "localhost:6379", TTL: cache.DefaultReportTTL},
		},
		Kafka:  KafkaConfig{Config: *kafka.DefaultConfig()},
		Outbox: *outbox.DefaultPublisherConfig(),
		Tracing: TracingConfig{
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
		Logging: LoggingConfig{Level: string(logging.LevelInfo)},
		Retry: RetryConfig{
			MaxAttempts:   resilience.DefaultRetryMaxAttempts,
			InitialDelay:  resilience.DefaultRetryInitialDelay,
			MaxDelay:      resilience.DefaultRetryMaxDelay,
			BackoffFactor: resilience.DefaultRetryBackoffFactor,
		},
		Report: ReportConfig{TimeZone: "America/Bogota", TopSellers: 5},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE if any, and environment overrides, in that order
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges a YAML file into cfg
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Version = getEnv("VERSION", c.Version)

	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Store.Backend = strings.ToLower(getEnv("STORE_BACKEND", c.Store.Backend))

	c.MongoDB.URI = getEnv("MONGODB_URI", c.MongoDB.URI)
	c.MongoDB.Database = getEnv("MONGODB_DATABASE", c.MongoDB.Database)
	c.MongoDB.ReplicaSet = getEnv("MONGODB_REPLICA_SET", c.MongoDB.ReplicaSet)
	c.MongoDB.Username = getEnv("MONGODB_USERNAME", c.MongoDB.Username)
	c.MongoDB.Password = getEnv("MONGODB_PASSWORD", c.MongoDB.Password)

	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", c.Kafka.Enabled)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}

	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Report.TimeZone = getEnv("REPORT_TIMEZONE", c.Report.TimeZone)
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMongoDB:
		if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
			return fmt.Errorf("mongodb uri and database are required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.maxAttempts must be at least 1")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka is enabled but no brokers are configured")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the time zone days are cut in for reports
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Report.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid report time zone %q: %w", c.Report.TimeZone, err)
	}
	return loc, nil
}

// RetryPolicy converts the retry section for the resilience package
func (c *Config) RetryPolicy() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxAttempts:   c.Retry.MaxAttempts,
		InitialDelay:  c.Retry.InitialDelay,
		MaxDelay:      c.Retry.MaxDelay,
		BackoffFactor: c.Retry.BackoffFactor,
	}
}

// LoggerConfig builds the logger configuration
func (c *Config) LoggerConfig() *logging.Config {
	lc := logging.DefaultConfig(ServiceName)
	lc.Level = logging.ParseLevel(c.Logging.Level)
	lc.Environment = c.Environment
	lc.Version = c.Version
	return lc
}

// TracerConfig builds the tracing configuration
func (c *Config) TracerConfig() *tracing.Config {
	tc := tracing.DefaultConfig(ServiceName)
	tc.ServiceVersion = c.Version
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.Tracing.Endpoint
	tc.SampleRate = c.Tracing.SampleRate
	tc.Enabled = c.Tracing.Enabled
	return tc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
