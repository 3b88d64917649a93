package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

const (
	reportKeyPrefix = "rapitienda:report:daily:"

	// DefaultReportTTL is how long a closed day's summary stays cached
	DefaultReportTTL = 24 * time.Hour
)

// Config holds Redis connection settings
type Config struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// ReportCache stores daily summaries as JSON strings
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a cache; ttl <= 0 uses DefaultReportTTL
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

// Get returns the cached summary for date, if present
func (c *ReportCache) Get(ctx context.Context, date string) (*domain.DailySummary, bool, error) {
	data, err := c.client.Get(ctx, reportKeyPrefix+date).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached report %s: %w", date, err)
	}

	var summary domain.DailySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached report %s: %w", date, err)
	}
	return &summary, true, nil
}

// Set stores summary under its date
func (c *ReportCache) Set(ctx context.Context, summary *domain.DailySummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", summary.Date, err)
	}
	if err := c.client.Set(ctx, reportKeyPrefix+summary.Date, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report %s: %w", summary.Date, err)
	}
	return nil
}
