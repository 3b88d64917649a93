package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/infrastructure/memory"
)

type fixture struct {
	store     *memory.Store
	inventory *InventoryService
	orders    *OrderService
	ledger    *LedgerService
}

func fastRetrier() *resilience.Retrier {
	return resilience.NewRetrier(&resilience.RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      4 * time.Millisecond,
		BackoffFactor: 2,
	}, logging.NewNop().Logger)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	logger := logging.NewNop()
	retrier := fastRetrier()

	return &fixture{
		store:     store,
		inventory: NewInventoryService(store.Inventory(), store.Recorder(), retrier, logger),
		orders:    NewOrderService(store.Orders(), store.Inventory(), store.Recorder(), retrier, logger),
		ledger:    NewLedgerService(store, nil, logger),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func (f *fixture) seedItem(t *testing.T, id, name string, qty int, salePrice string, minAlert int) {
	t.Helper()
	_, err := f.store.Inventory().Upsert(context.Background(), id, domain.ItemFields{
		Name:          ptr(name),
		Quantity:      ptr(qty),
		PurchasePrice: ptr(domain.MustMoney("1.00")),
		SalePrice:     ptr(domain.MustMoney(salePrice)),
		MinStockAlert: ptr(minAlert),
	})
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, id string) int {
	t.Helper()
	item, err := f.store.Inventory().FindByID(context.Background(), id)
	require.NoError(t, err)
	return item.Quantity
}

func (f *fixture) history(t *testing.T, id string) []*domain.HistoryEntry {
	t.Helper()
	entries, err := f.store.Inventory().FindHistory(context.Background(), id)
	require.NoError(t, err)
	return entries
}

func (f *fixture) createOrder(t *testing.T, title string, lines ...OrderLineCommand) string {
	t.Helper()
	order, err := f.orders.Create(context.Background(), CreateOrderCommand{Title: title, Items: lines})
	require.NoError(t, err)
	return order.ID
}
