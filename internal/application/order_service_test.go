package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

func TestCreateOrder_PricesFromStoreWithDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 10, "3.00", 0)
	f.seedItem(t, "B1", "Beans", 10, "4.50", 0)

	order, err := f.orders.Create(ctx, CreateOrderCommand{
		Title: "Table 4",
		Items: []OrderLineCommand{
			{ItemID: "A1", Quantity: 2},
			{ItemID: "B1", Quantity: 1},
			{ItemID: "A1", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "cash", order.PaymentMethod)
	assert.Equal(t, domain.DefaultCustomerName, order.CustomerName)
	assert.False(t, order.IsDirectSale)
	assert.True(t, order.Price.Equals(domain.MustMoney("13.50")))
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, "Rice", order.LineItems[0].Name)
	assert.Equal(t, 3, order.LineItems[0].Quantity)

	// creating an order does not touch stock
	assert.Equal(t, 10, f.quantity(t, "A1"))

	count, err := f.orders.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateOrder_UnknownItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.Create(context.Background(), CreateOrderCommand{
		Items: []OrderLineCommand{{ItemID: "ghost", Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Contains(t, err.Error(), "product 'ghost' not found in inventory")
}

func TestCreateOrder_RetriesInsert(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "A1", "Rice", 10, "3.00", 0)
	f.store.InjectFault("insertOrder", 1, errTransient)

	order, err := f.orders.Create(context.Background(), CreateOrderCommand{
		Items: []OrderLineCommand{{ItemID: "A1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.Calls("insertOrder"))
	assert.Equal(t, "Order "+order.ID[:8], order.Title)

	count, err := f.orders.CountOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 10, "3.00", 0)
	id := f.createOrder(t, "Table 1", OrderLineCommand{ItemID: "A1", Quantity: 1})

	order, err := f.orders.MarkProcessing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "processing", order.Status)

	_, err = f.orders.MarkProcessing(ctx, id)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))

	// processing orders can still be completed
	result, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: id})
	require.NoError(t, err)
	assert.True(t, result.OK)
}

func TestMarkProcessing_RunsOnce(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "A1", "Rice", 10, "3.00", 0)
	id := f.createOrder(t, "Table 1", OrderLineCommand{ItemID: "A1", Quantity: 1})
	f.store.InjectFault("updateOrderStatus", 1, errTransient)

	_, err := f.orders.MarkProcessing(context.Background(), id)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceUnavailable))
	assert.Equal(t, 1, f.store.Calls("updateOrderStatus"))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 10, "3.00", 0)

	open := f.createOrder(t, "Open", OrderLineCommand{ItemID: "A1", Quantity: 1})
	require.NoError(t, f.orders.Cancel(ctx, open))
	_, err := f.orders.GetOrder(ctx, open)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	done := f.createOrder(t, "Done", OrderLineCommand{ItemID: "A1", Quantity: 1})
	_, err = f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: done})
	require.NoError(t, err)

	err = f.orders.Cancel(ctx, done)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))
	_, err = f.orders.GetOrder(ctx, done)
	assert.NoError(t, err)

	err = f.orders.Cancel(ctx, "ghost")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	types := map[string]int{}
	for _, e := range f.store.Outbox().All() {
		types[e.EventType]++
	}
	assert.Equal(t, 2, types["rapitienda.order.created"])
	assert.Equal(t, 1, types["rapitienda.order.cancelled"])
}

func TestGetOrders_FilterAndRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 10, "3.00", 0)

	pending := f.createOrder(t, "Pending", OrderLineCommand{ItemID: "A1", Quantity: 1})
	done := f.createOrder(t, "Done", OrderLineCommand{ItemID: "A1", Quantity: 1})
	_, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: done})
	require.NoError(t, err)

	all, err := f.orders.GetOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := f.orders.GetOrders(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pending, open[0].ID)

	_, err = f.orders.GetOrders(ctx, "shipped")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))

	now := time.Now().UTC()
	inRange, err := f.orders.GetOrdersInRange(ctx, OrdersInRangeQuery{Start: now.Add(-time.Hour), End: now.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, done, inRange[0].ID)

	_, err = f.orders.GetOrdersInRange(ctx, OrdersInRangeQuery{Start: now, End: now})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))
}
