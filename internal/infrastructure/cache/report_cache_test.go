package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	sharedtesting "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/testing"
)

func setupRedis(t *testing.T) (*redis.Client, func()) {
	sharedtesting.SkipIfShort(t)
	ctx := context.Background()

	container, err := sharedtesting.NewRedisContainer(ctx)
	require.NoError(t, err)

	client, err := NewClient(ctx, &Config{Addr: container.Addr})
	require.NoError(t, err)

	return client, func() {
		_ = client.Close()
		if err := container.Close(ctx); err != nil {
			t.Logf("Failed to close Redis container: %v", err)
		}
	}
}

func TestReportCache_RoundTrip(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	ctx, cancel := sharedtesting.CreateTestContext(30 * time.Second)
	defer cancel()
	c := NewReportCache(client, time.Minute)

	_, ok, err := c.Get(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.False(t, ok)

	summary := &domain.DailySummary{
		Date:             "2024-03-01",
		Transactions:     2,
		CashTotal:        domain.MustMoney("10.00"),
		CreditTotal:      domain.MustMoney("8.00"),
		Revenue:          domain.MustMoney("18.00"),
		CreditByCustomer: map[string]domain.Money{"Marta": domain.MustMoney("8.00")},
		TopSellers:       []domain.TopSeller{{ItemID: "A", Name: "Arroz", Quantity: 3}},
		GrossMargin:      650,
	}
	require.NoError(t, c.Set(ctx, summary))

	got, ok, err := c.Get(ctx, "2024-03-01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Transactions)
	assert.True(t, got.CashTotal.Equals(summary.CashTotal))
	assert.True(t, got.CreditByCustomer["Marta"].Equals(domain.MustMoney("8.00")))
	assert.Equal(t, summary.TopSellers, got.TopSellers)

	ttl, err := client.TTL(ctx, reportKeyPrefix+"2024-03-01").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
