package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

func TestCompleteOrder_DecrementsStockAndRaisesAlerts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "7701", "Soda", 10, "2.50", 5)

	first := f.createOrder(t, "Morning basket", OrderLineCommand{ItemID: "7701", Quantity: 6})
	result, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: first})
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "Sale 'Morning basket' completed successfully.", result.Message)
	assert.Equal(t, []string{"'Soda' reached its minimum stock threshold (4/5)."}, result.Alerts)
	assert.Equal(t, 4, f.quantity(t, "7701"))

	second := f.createOrder(t, "Noon basket", OrderLineCommand{ItemID: "7701", Quantity: 3})
	result, err = f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: second})
	require.NoError(t, err)
	assert.Equal(t, []string{"'Soda' reached its minimum stock threshold (1/5)."}, result.Alerts)
	assert.Equal(t, 1, f.quantity(t, "7701"))

	third := f.createOrder(t, "Evening basket", OrderLineCommand{ItemID: "7701", Quantity: 2})
	result, err = f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: third})
	require.Error(t, err)
	assert.False(t, result.OK)
	assert.Empty(t, result.Alerts)
	assert.Equal(t, "Transaction error: insufficient stock for 'Soda': available 1", result.Message)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, 409, appErr.HTTPStatus)
	assert.Equal(t, "1", appErr.Details["available"])
	assert.Equal(t, "2", appErr.Details["requested"])
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	assert.Equal(t, 1, f.quantity(t, "7701"))
	order, err := f.orders.GetOrder(ctx, third)
	require.NoError(t, err)
	assert.Equal(t, "pending", order.Status)
	assert.Nil(t, order.CompletedAt)
}

func TestCompleteOrder_WritesHistoryAndCompletesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 8, "3.00", 0)
	f.seedItem(t, "B1", "Beans", 4, "4.00", 0)

	id := f.createOrder(t, "Weekly",
		OrderLineCommand{ItemID: "A1", Quantity: 3},
		OrderLineCommand{ItemID: "B1", Quantity: 4},
	)
	result, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: id})
	require.NoError(t, err)
	assert.Empty(t, result.Alerts)

	assert.Equal(t, 5, f.quantity(t, "A1"))
	assert.Equal(t, 0, f.quantity(t, "B1"))

	entries := f.history(t, "B1")
	require.Len(t, entries, 1)
	assert.Equal(t, domain.HistorySaleCompleted, entries[0].Type)
	assert.Equal(t, -4, entries[0].QuantityChange)
	assert.Equal(t, "Sale ID: "+id, entries[0].Details)

	order, err := f.orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", order.Status)
	require.NotNil(t, order.CompletedAt)

	types := map[string]int{}
	for _, e := range f.store.Outbox().All() {
		types[e.EventType]++
	}
	assert.Equal(t, 1, types["rapitienda.sale.completed"])
	assert.Zero(t, types["rapitienda.inventory.low-stock-alert"])
}

func TestCompleteOrder_CompletesProcessingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 8, "3.00", 0)

	id := f.createOrder(t, "Table 9", OrderLineCommand{ItemID: "A1", Quantity: 3})
	processing, err := f.orders.MarkProcessing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "processing", processing.Status)
	assert.Equal(t, 8, f.quantity(t, "A1"))

	result, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: id})
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "Sale 'Table 9' completed successfully.", result.Message)
	assert.Equal(t, 5, f.quantity(t, "A1"))

	order, err := f.orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", order.Status)
	require.NotNil(t, order.CompletedAt)
	assert.False(t, order.CompletedAt.IsZero())

	entries := f.history(t, "A1")
	require.Len(t, entries, 1)
	assert.Equal(t, -3, entries[0].QuantityChange)
}

func TestCompleteOrder_RejectsCompletedAndUnknownOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 8, "3.00", 0)

	id := f.createOrder(t, "Once", OrderLineCommand{ItemID: "A1", Quantity: 1})
	_, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: id})
	require.NoError(t, err)

	result, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: id})
	require.Error(t, err)
	assert.False(t, result.OK)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))
	assert.Equal(t, 7, f.quantity(t, "A1"))

	_, err = f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: "missing"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCompleteOrder_DeletedItemFailsWithName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 8, "3.00", 0)
	f.seedItem(t, "Z9", "Candles", 2, "1.50", 0)

	id := f.createOrder(t, "Basket",
		OrderLineCommand{ItemID: "A1", Quantity: 1},
		OrderLineCommand{ItemID: "Z9", Quantity: 1},
	)
	_, err := f.inventory.DeleteItem(ctx, DeleteItemCommand{ItemID: "Z9"})
	require.NoError(t, err)

	result, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: id})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Equal(t, "Transaction error: product 'Candles' no longer exists in inventory", result.Message)
	assert.Equal(t, 8, f.quantity(t, "A1"))
}

func TestProcessDirectSale_ChargesStoredPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "7702", "Bread", 5, "10.00", 0)

	result, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
		SaleID: "pos-20240310-0001",
		Items: []SaleLineCommand{
			{ItemID: "7702", Name: "Bread", Quantity: 2, Price: ptr(domain.MustMoney("3.00"))},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "Sale recorded. Total: $20.00", result.Message)
	assert.Equal(t, "pos-20240310-0001", result.OrderID)

	order, err := f.orders.GetOrder(ctx, "pos-20240310-0001")
	require.NoError(t, err)
	assert.Equal(t, "Direct Sale 0001", order.Title)
	assert.True(t, order.IsDirectSale)
	assert.Equal(t, "completed", order.Status)
	assert.Equal(t, "cash", order.PaymentMethod)
	assert.Equal(t, domain.DefaultCustomerName, order.CustomerName)
	assert.True(t, order.Price.Equals(domain.MustMoney("20.00")))
	require.Len(t, order.LineItems, 1)
	assert.True(t, order.LineItems[0].SalePrice.Equals(domain.MustMoney("10.00")))

	entries := f.history(t, "7702")
	require.Len(t, entries, 1)
	assert.Equal(t, domain.HistoryDirectSale, entries[0].Type)
	assert.Equal(t, "Sale ID: pos-20240310-0001", entries[0].Details)
	assert.Equal(t, 3, f.quantity(t, "7702"))
}

func TestProcessDirectSale_InsufficientStockLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 5, "3.00", 2)
	f.seedItem(t, "B1", "Beans", 1, "4.00", 0)

	result, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
		SaleID: "sale-1",
		Items: []SaleLineCommand{
			{ItemID: "A1", Name: "Rice", Quantity: 4},
			{ItemID: "B1", Name: "Beans", Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "Error processing sale: insufficient stock for 'Beans': available 1", result.Message)

	assert.Equal(t, 5, f.quantity(t, "A1"))
	assert.Equal(t, 1, f.quantity(t, "B1"))
	assert.Empty(t, f.history(t, "A1"))
	assert.Empty(t, f.store.Outbox().All())

	_, err = f.orders.GetOrder(ctx, "sale-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestProcessDirectSale_AggregatesRepeatedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 5, "3.00", 5)

	result, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
		SaleID: "sale-2",
		Items: []SaleLineCommand{
			{ItemID: "A1", Quantity: 2},
			{ItemID: "A1", Quantity: 3},
		},
	})
	require.NoError(t, err)
	// selling out exactly is allowed and raises no alert
	assert.Empty(t, result.Alerts)
	assert.Equal(t, 0, f.quantity(t, "A1"))

	entries := f.history(t, "A1")
	require.Len(t, entries, 1)
	assert.Equal(t, -5, entries[0].QuantityChange)
}

func TestProcessDirectSale_RepeatedLinesCannotWrapIntoRestock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 10, "5.00", 0)

	result, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
		SaleID: "sale-wrap",
		Items: []SaleLineCommand{
			{ItemID: "A1", Quantity: math.MaxInt},
			{ItemID: "A1", Quantity: math.MaxInt},
		},
	})
	require.Error(t, err)
	assert.False(t, result.OK)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	assert.Equal(t, 10, f.quantity(t, "A1"))
	assert.Empty(t, f.history(t, "A1"))
	_, err = f.orders.GetOrder(ctx, "sale-wrap")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCreateOrder_RejectsOverflowingQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 10, "5.00", 0)

	_, err := f.orders.Create(ctx, CreateOrderCommand{Items: []OrderLineCommand{
		{ItemID: "A1", Quantity: math.MaxInt},
		{ItemID: "A1", Quantity: 3},
	}})
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))

	// a single line whose price no longer fits in the total
	_, err = f.orders.Create(ctx, CreateOrderCommand{Items: []OrderLineCommand{
		{ItemID: "A1", Quantity: math.MaxInt},
	}})
	assert.True(t, errors.Is(err, domain.ErrAmountOverflow))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))

	count, err := f.orders.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessDirectSale_DuplicateSaleIDIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 5, "3.00", 0)

	cmd := DirectSaleCommand{SaleID: "sale-3", Items: []SaleLineCommand{{ItemID: "A1", Quantity: 1}}}
	_, err := f.ledger.ProcessDirectSale(ctx, cmd)
	require.NoError(t, err)

	result, err := f.ledger.ProcessDirectSale(ctx, cmd)
	require.Error(t, err)
	assert.False(t, result.OK)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))
	assert.True(t, errors.Is(err, domain.ErrDuplicateSale))
	assert.Equal(t, 4, f.quantity(t, "A1"))
}

func TestProcessDirectSale_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cmd     DirectSaleCommand
		message string
	}{
		{
			name:    "missing sale id",
			cmd:     DirectSaleCommand{Items: []SaleLineCommand{{ItemID: "A1", Quantity: 1}}},
			message: "Error processing sale: sale id is required",
		},
		{
			name:    "no lines",
			cmd:     DirectSaleCommand{SaleID: "s-1"},
			message: "Error processing sale: sale has no line items",
		},
		{
			name:    "zero quantity",
			cmd:     DirectSaleCommand{SaleID: "s-1", Items: []SaleLineCommand{{ItemID: "A1", Quantity: 0}}},
			message: "Error processing sale: invalid quantity",
		},
		{
			name: "credit without customer",
			cmd: DirectSaleCommand{
				SaleID:        "s-1",
				Items:         []SaleLineCommand{{ItemID: "A1", Quantity: 1}},
				PaymentMethod: "credit",
			},
			message: "Error processing sale: credit sales require a customer name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedItem(t, "A1", "Rice", 5, "3.00", 0)

			result, err := f.ledger.ProcessDirectSale(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationError))
			assert.Equal(t, tt.message, result.Message)
			assert.Equal(t, 5, f.quantity(t, "A1"))
		})
	}
}

func TestProcessDirectSale_CreditSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 5, "3.00", 0)

	_, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
		SaleID:        "s-credit",
		Items:         []SaleLineCommand{{ItemID: "A1", Quantity: 2}},
		PaymentMethod: "Credit",
		CustomerName:  "  Doña Marta ",
	})
	require.NoError(t, err)

	order, err := f.orders.GetOrder(ctx, "s-credit")
	require.NoError(t, err)
	assert.Equal(t, "credit", order.PaymentMethod)
	assert.Equal(t, "Doña Marta", order.CustomerName)
}

func TestProcessDirectSale_CommitFailureMapsToServiceUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 5, "3.00", 0)
	f.store.InjectFault("commit", 1, errors.New("replica set election"))

	result, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
		SaleID: "s-fault",
		Items:  []SaleLineCommand{{ItemID: "A1", Quantity: 2}},
	})
	require.Error(t, err)
	assert.False(t, result.OK)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceUnavailable))
	assert.Equal(t, 5, f.quantity(t, "A1"))
	// the ledger never retries on its own
	assert.Equal(t, 1, f.store.Calls("commit"))
}

func TestLedger_HistoryMatchesStockMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 50, "3.00", 0)

	requested := 0
	for i, qty := range []int{3, 7, 1, 12} {
		_, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
			SaleID: fmt.Sprintf("sale-%d", i),
			Items:  []SaleLineCommand{{ItemID: "A1", Quantity: qty}},
		})
		require.NoError(t, err)
		requested += qty
	}
	id := f.createOrder(t, "Basket", OrderLineCommand{ItemID: "A1", Quantity: 4})
	_, err := f.ledger.CompleteOrder(ctx, CompleteOrderCommand{OrderID: id})
	require.NoError(t, err)
	requested += 4

	// a rejected sale leaves no trace
	_, err = f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
		SaleID: "too-big",
		Items:  []SaleLineCommand{{ItemID: "A1", Quantity: 100}},
	})
	require.Error(t, err)

	sum := 0
	for _, e := range f.history(t, "A1") {
		sum += e.QuantityChange
	}
	assert.Equal(t, -requested, sum)
	assert.Equal(t, 50-requested, f.quantity(t, "A1"))
}

func TestProcessDirectSale_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 10, "3.00", 0)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
				SaleID: fmt.Sprintf("rush-%d", i),
				Items:  []SaleLineCommand{{ItemID: "A1", Quantity: 1}},
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case apperrors.HasCode(err, apperrors.CodeInsufficientStock):
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(10), succeeded.Load())
	assert.Equal(t, int32(15), rejected.Load())
	assert.Equal(t, 0, f.quantity(t, "A1"))
	assert.Len(t, f.history(t, "A1"), 10)
}

func TestLedger_OutboxCarriesAlerts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedItem(t, "A1", "Rice", 6, "3.00", 5)
	f.seedItem(t, "B1", "Beans", 3, "4.00", 2)

	result, err := f.ledger.ProcessDirectSale(ctx, DirectSaleCommand{
		SaleID: "alerting",
		Items: []SaleLineCommand{
			{ItemID: "A1", Quantity: 2},
			{ItemID: "B1", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.Alerts, 2)

	types := map[string]int{}
	for _, e := range f.store.Outbox().All() {
		types[e.EventType]++
	}
	assert.Equal(t, 1, types["rapitienda.sale.direct-recorded"])
	assert.Equal(t, 2, types["rapitienda.inventory.low-stock-alert"])
}
