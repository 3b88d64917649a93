package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/application"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/config"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	return cfg
}

func TestOpenStore_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	logger := logging.NewNop()
	m := metrics.New(metrics.DefaultConfig(config.ServiceName))

	backend, err := OpenStore(ctx, cfg, m, logger)
	require.NoError(t, err)
	defer backend.Close(ctx)

	assert.Equal(t, config.BackendMemory, backend.Name)
	assert.Nil(t, backend.Breaker)
	require.NoError(t, backend.Ping(ctx))
	require.NoError(t, backend.EnsureIndexes(ctx))

	cache, client, err := OpenReportCache(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, cache)
	assert.Nil(t, client)
	assert.Nil(t, NewRelay(cfg, backend, m, logger))

	services, err := NewServices(cfg, backend, cache, m, logger)
	require.NoError(t, err)

	_, err = services.Inventory.SaveItem(ctx, application.SaveItemCommand{
		ItemID:    "A1",
		IsNew:     true,
		Name:      strPtr("Rice"),
		Quantity:  intPtr(3),
		SalePrice: moneyPtr(domain.MustMoney("2.00")),
	})
	require.NoError(t, err)

	result, err := services.Ledger.ProcessDirectSale(ctx, application.DirectSaleCommand{
		SaleID: "pos-1",
		Items:  []application.SaleLineCommand{{ItemID: "A1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sale recorded. Total: $2.00", result.Message)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "sqlite"

	_, err := OpenStore(context.Background(), cfg, nil, logging.NewNop())
	assert.Error(t, err)
}

func TestNewRelay_KafkaEnabled(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	cfg.Kafka.Enabled = true
	logger := logging.NewNop()

	backend, err := OpenStore(ctx, cfg, nil, logger)
	require.NoError(t, err)

	relay := NewRelay(cfg, backend, nil, logger)
	require.NotNil(t, relay)
	assert.False(t, relay.Publisher.IsRunning())
	// the writer dials lazily, so closing an unused relay does not touch the brokers
	assert.NoError(t, relay.Close())
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func moneyPtr(m domain.Money) *domain.Money { return &m }
