package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/infrastructure/events"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	pkgmongo "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/mongodb"
	outboxMongo "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/outbox/mongodb"
)

// Collection names
const (
	InventoryCollection = "inventory"
	HistoryCollection   = "inventory_history"
	OrdersCollection    = "orders"
)

// DefaultMaxTransactionAttempts bounds how often a conflicting transaction is re-run
const DefaultMaxTransactionAttempts = 5

// Store is the MongoDB backed ledger store. It is built once at start-up
// and handed to every repository and service that needs it.
type Store struct {
	client    *pkgmongo.Client
	inventory *mongo.Collection
	history   *mongo.Collection
	orders    *mongo.Collection

	outbox   *outboxMongo.OutboxRepository
	recorder *events.OutboxRecorder

	metrics       *metrics.Metrics
	logger        *logging.Logger
	maxTxAttempts int
}

// NewStore creates a Store over an connected client; m may be nil
func NewStore(client *pkgmongo.Client, m *metrics.Metrics, logger *logging.Logger) *Store {
	db := client.Database()
	ob := outboxMongo.NewOutboxRepository(db)

	return &Store{
		client:        client,
		inventory:     db.Collection(InventoryCollection),
		history:       db.Collection(HistoryCollection),
		orders:        db.Collection(OrdersCollection),
		outbox:        ob,
		recorder:      events.NewOutboxRecorder(ob),
		metrics:       m,
		logger:        logger.WithComponent("mongo-store"),
		maxTxAttempts: DefaultMaxTransactionAttempts,
	}
}

// Inventory returns the inventory repository
func (s *Store) Inventory() *InventoryRepository {
	return &InventoryRepository{items: s.inventory, history: s.history}
}

// Orders returns the order repository
func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{orders: s.orders}
}

// Outbox returns the outbox repository relayed by the publisher
func (s *Store) Outbox() *outboxMongo.OutboxRepository {
	return s.outbox
}

// Recorder writes events to the outbox outside a transaction
func (s *Store) Recorder() domain.EventRecorder {
	return s.recorder
}

// Ping checks the primary is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// EnsureIndexes creates every index the repositories rely on
func (s *Store) EnsureIndexes(ctx context.Context) error {
	caseInsensitive := &options.Collation{Locale: "en", Strength: 2}

	specs := []struct {
		collection *mongo.Collection
		models     []mongo.IndexModel
	}{
		{s.inventory, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName("idx_name_ci").SetCollation(caseInsensitive),
			},
		}},
		{s.history, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "itemId", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_itemId_timestamp"),
			},
		}},
		{s.orders, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_status_timestamp"),
			},
			{
				Keys:    bson.D{{Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_timestamp"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "completedAt", Value: 1}},
				Options: options.Index().SetName("idx_status_completedAt"),
			},
		}},
	}

	for _, spec := range specs {
		if _, err := spec.collection.Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", spec.collection.Name(), err)
		}
	}

	return s.outbox.EnsureIndexes(ctx)
}

// RunInTransaction implements domain.TransactionRunner. A transaction the
// server labels transient (write conflicts, elections) is re-run from the
// start up to maxTxAttempts times.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxTxAttempts; attempt++ {
		err = s.client.RunTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			return fn(sessCtx, &mongoTx{s: s})
		})
		if err == nil || !pkgmongo.IsTransientTransactionError(err) || ctx.Err() != nil {
			return err
		}

		if s.metrics != nil {
			s.metrics.RecordTransactionConflict("ledger")
		}
		s.logger.WithContext(ctx).Warn("Transaction conflict, retrying",
			"attempt", attempt,
			"maxAttempts", s.maxTxAttempts,
			"error", err.Error(),
		)
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", s.maxTxAttempts, err)
}
