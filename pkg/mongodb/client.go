package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Config holds MongoDB connection configuration
type Config struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	MaxPoolSize    uint64        `yaml:"maxPoolSize"`
	MinPoolSize    uint64        `yaml:"minPoolSize"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`
	AuthDB   string `yaml:"authDb"`

	// ReplicaSet must be set (or implied by the URI); transactions need a replica set.
	ReplicaSet string `yaml:"replicaSet"`
	Direct     bool   `yaml:"direct"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		URI:            "mongodb://localhost:27017",
		Database:       "rapitienda",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    100,
		MinPoolSize:    5,
	}
}

// Option customises the driver options before connecting
type Option func(*options.ClientOptions)

// WithMonitor installs a command monitor on the client
func WithMonitor(monitor *event.CommandMonitor) Option {
	return func(o *options.ClientOptions) {
		o.SetMonitor(monitor)
	}
}

// Client wraps the MongoDB client with ledger-specific functionality
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	config   *Config
}

// NewClient creates a new MongoDB client and verifies the primary is reachable
func NewClient(ctx context.Context, config *Config, opts ...Option) (*Client, error) {
	clientOpts := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.ConnectTimeout).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize)

	if config.Username != "" && config.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username:   config.Username,
			Password:   config.Password,
			AuthSource: config.AuthDB,
		})
	}

	if config.ReplicaSet != "" {
		clientOpts.SetReplicaSet(config.ReplicaSet)
	}
	if config.Direct {
		clientOpts.SetDirect(true)
	}

	for _, opt := range opts {
		opt(clientOpts)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return Wrap(client, config.Database), nil
}

// Wrap adapts an already connected driver client
func Wrap(client *mongo.Client, database string) *Client {
	return &Client{
		client:   client,
		database: client.Database(database),
		config:   &Config{Database: database},
	}
}

// Database returns the database handle
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Collection returns a collection handle
func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

// Client returns the underlying MongoDB client
func (c *Client) Client() *mongo.Client {
	return c.client
}

// Close disconnects the client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// HealthCheck performs a health check on the MongoDB connection
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// TransactionOptions are the options every ledger transaction runs with:
// snapshot reads and majority-acknowledged commits.
func TransactionOptions() *options.TransactionOptions {
	return options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary())
}

// RunTransaction executes fn once inside a fresh session transaction.
// It does not retry; callers own the conflict policy.
func (c *Client) RunTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	return mongo.WithSession(ctx, session, func(sessCtx mongo.SessionContext) error {
		if err := session.StartTransaction(TransactionOptions()); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if err := fn(sessCtx); err != nil {
			// the abort result is irrelevant; the caller sees fn's error
			_ = session.AbortTransaction(context.Background())
			return err
		}

		return commitWithRetry(sessCtx, session)
	})
}

const maxCommitAttempts = 3

// commitWithRetry re-issues commit while the outcome is unknown
func commitWithRetry(sessCtx mongo.SessionContext, session mongo.Session) error {
	var err error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		err = session.CommitTransaction(sessCtx)
		if err == nil || !IsUnknownCommitResult(err) || sessCtx.Err() != nil {
			return err
		}
	}
	return err
}
