// Package bootstrap assembles the store, resilience and application layers
// from configuration. The API server and the admin CLI share it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/kafka"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	pkgmongo "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/mongodb"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/outbox"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/application"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/config"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/infrastructure/cache"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/infrastructure/memory"
	mongoStore "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/infrastructure/mongodb"
)

// Backend is the store selected by configuration, seen through the domain ports
type Backend struct {
	Name      string
	Runner    domain.TransactionRunner
	Inventory domain.InventoryRepository
	Orders    domain.OrderRepository
	Recorder  domain.EventRecorder
	Outbox    outbox.Repository

	// Breaker guards store calls made through the retrier; nil for memory
	Breaker *resilience.CircuitBreaker

	ping    func(ctx context.Context) error
	indexes func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// OpenStore connects to the configured backend. m may be nil.
func OpenStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *logging.Logger) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		store := memory.NewStore()
		logger.Warn("Using in-memory store; data is lost on restart")
		return &Backend{
			Name:      config.BackendMemory,
			Runner:    store,
			Inventory: store.Inventory(),
			Orders:    store.Orders(),
			Recorder:  store.Recorder(),
			Outbox:    store.Outbox(),
			ping:      store.Ping,
			indexes:   func(context.Context) error { return nil },
			close:     store.Close,
		}, nil

	case config.BackendMongoDB:
		var opts []pkgmongo.Option
		if m != nil {
			opts = append(opts, pkgmongo.WithMonitor(pkgmongo.NewInstrumentation(m, logger).Monitor()))
		}

		client, err := pkgmongo.NewClient(ctx, &cfg.MongoDB, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

		store := mongoStore.NewStore(client, m, logger)
		return &Backend{
			Name:      config.BackendMongoDB,
			Runner:    store,
			Inventory: store.Inventory(),
			Orders:    store.Orders(),
			Recorder:  store.Recorder(),
			Outbox:    store.Outbox(),
			Breaker:   pkgmongo.NewCircuitBreaker(logger, m),
			ping:      store.Ping,
			indexes:   store.EnsureIndexes,
			close:     store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Ping checks that the store is reachable
func (b *Backend) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on
func (b *Backend) EnsureIndexes(ctx context.Context) error {
	return b.indexes(ctx)
}

// Close releases the store connection
func (b *Backend) Close(ctx context.Context) error {
	return b.close(ctx)
}

// NewRetrier builds the retry policy for plain store calls. Failed attempts
// are counted when m is set and pass through the store breaker when there is one.
func NewRetrier(cfg *config.Config, b *Backend, m *metrics.Metrics, logger *logging.Logger) *resilience.Retrier {
	var opts []resilience.RetrierOption
	if b.Breaker != nil {
		opts = append(opts, resilience.WithCircuitBreaker(b.Breaker))
	}
	if m != nil {
		opts = append(opts, resilience.WithAttemptHook(func(op resilience.Operation, _ int, _ error) {
			m.RecordRetryAttempt(op.Name)
		}))
	}
	return resilience.NewRetrier(cfg.RetryPolicy(), logger.Logger, opts...)
}

// Services are the application services built over one backend
type Services struct {
	Inventory *application.InventoryService
	Orders    *application.OrderService
	Ledger    *application.LedgerService
	Reports   *application.ReportService
}

// NewServices wires the application layer. reportCache and m may be nil.
func NewServices(cfg *config.Config, b *Backend, reportCache application.ReportCache, m *metrics.Metrics, logger *logging.Logger) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	retrier := NewRetrier(cfg, b, m, logger)
	return &Services{
		Inventory: application.NewInventoryService(b.Inventory, b.Recorder, retrier, logger),
		Orders:    application.NewOrderService(b.Orders, b.Inventory, b.Recorder, retrier, logger),
		Ledger:    application.NewLedgerService(b.Runner, m, logger),
		Reports: application.NewReportService(b.Orders, reportCache, retrier, m, logger, application.ReportConfig{
			Location:   loc,
			TopSellers: cfg.Report.TopSellers,
		}),
	}, nil
}

// OpenReportCache connects to Redis when it is enabled. A nil cache means
// summaries are always recomputed.
func OpenReportCache(ctx context.Context, cfg *config.Config, logger *logging.Logger) (application.ReportCache, *redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil, nil
	}

	client, err := cache.NewClient(ctx, &cfg.Redis.Config)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Report cache connected", "addr", cfg.Redis.Addr)
	return cache.NewReportCache(client, cfg.Redis.TTL), client, nil
}

// Relay is the outbox publisher and the Kafka writer behind it
type Relay struct {
	Publisher *outbox.Publisher
	producer  *kafka.Producer
}

// NewRelay builds the outbox relay when Kafka is enabled; nil otherwise
func NewRelay(cfg *config.Config, b *Backend, m *metrics.Metrics, logger *logging.Logger) *Relay {
	if !cfg.Kafka.Enabled {
		return nil
	}

	producer, publisher := kafka.NewProductionProducer(&cfg.Kafka.Config, m, logger)
	logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)

	return &Relay{
		Publisher: outbox.NewPublisher(b.Outbox, publisher, logger, m, &cfg.Outbox),
		producer:  producer,
	}
}

// Close stops the publisher if it is running and closes the writers
func (r *Relay) Close() error {
	if r.Publisher.IsRunning() {
		if err := r.Publisher.Stop(); err != nil {
			return err
		}
	}
	return r.producer.Close()
}

// ShutdownContext bounds cleanup work after the main context is gone
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
