package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_Normalize(t *testing.T) {
	p, err := Payment{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PaymentCash, p.Method)
	assert.Equal(t, DefaultCustomerName, p.CustomerName)

	p, err = Payment{Method: PaymentCredit, CustomerName: " Doña Marta "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Doña Marta", p.CustomerName)

	_, err = Payment{Method: PaymentCredit}.Normalize()
	assert.ErrorIs(t, err, ErrCreditCustomerRequired)

	_, err = Payment{Method: "barter"}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestDirectSaleTitle(t *testing.T) {
	assert.Equal(t, "Direct Sale 4f2a", DirectSaleTitle("sale-20240101-4f2a"))
	assert.Equal(t, "Direct Sale abc", DirectSaleTitle("abc"))
}

func TestNewDirectSaleOrder_UsesSnapshotPrices(t *testing.T) {
	a := &InventoryItem{ID: "A", Name: "A", Quantity: 10, SalePrice: MustMoney("5.00"), PurchasePrice: MustMoney("3.00")}
	b := &InventoryItem{ID: "B", Name: "B", Quantity: 10, SalePrice: MustMoney("10.00"), PurchasePrice: MustMoney("6.00")}
	lines := []LineItem{NewLineItem(a, 2), NewLineItem(b, 1)}

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	order, err := NewDirectSaleOrder("sale-1", lines, Payment{Method: PaymentCash, CustomerName: DefaultCustomerName}, now)
	require.NoError(t, err)

	assert.Equal(t, int64(2000), order.Price.Amount())
	assert.Equal(t, OrderStatusCompleted, order.Status)
	assert.True(t, order.IsDirectSale)
	require.NotNil(t, order.CompletedAt)
	assert.Equal(t, now, *order.CompletedAt)

	// later price changes do not reach the snapshot
	a.SalePrice = MustMoney("99.00")
	assert.Equal(t, int64(500), order.LineItems[0].SalePrice.Amount())
}

func TestOrder_Transitions(t *testing.T) {
	o := &Order{ID: "o1", Status: OrderStatusPending}
	require.NoError(t, o.MarkProcessing())
	assert.Equal(t, OrderStatusProcessing, o.Status)
	assert.ErrorIs(t, o.MarkProcessing(), ErrInvalidStatusChange)

	now := time.Now().UTC()
	require.NoError(t, o.Complete(now))
	assert.Equal(t, OrderStatusCompleted, o.Status)
	assert.ErrorIs(t, o.Complete(now), ErrOrderAlreadyCompleted)
}

func TestAggregateDemand(t *testing.T) {
	merged, err := AggregateDemand([]SaleLine{
		{ItemID: "A", Quantity: 2},
		{ItemID: "B", Quantity: 1},
		{ItemID: "A", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, SaleLine{ItemID: "A", Quantity: 5}, merged[0])
	assert.Equal(t, SaleLine{ItemID: "B", Quantity: 1}, merged[1])

	_, err = AggregateDemand(nil)
	assert.ErrorIs(t, err, ErrEmptySale)

	_, err = AggregateDemand([]SaleLine{{ItemID: "A", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = AggregateDemand([]SaleLine{{ItemID: "a/b", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidItemID)

	// repeats whose sum wraps around are rejected, not merged into a negative demand
	_, err = AggregateDemand([]SaleLine{
		{ItemID: "A", Quantity: math.MaxInt},
		{ItemID: "A", Quantity: math.MaxInt},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	merged, err = AggregateDemand([]SaleLine{
		{ItemID: "A", Quantity: math.MaxInt - 1},
		{ItemID: "A", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, merged[0].Quantity)
}

func TestOrder_Demand(t *testing.T) {
	o := &Order{ID: "o1", LineItems: []LineItem{
		{ItemID: "A", Quantity: 2},
		{ItemID: "A", Quantity: 1},
	}}
	demand, err := o.Demand()
	require.NoError(t, err)
	assert.Equal(t, []SaleLine{{ItemID: "A", Quantity: 3}}, demand)

	_, err = (&Order{ID: "o2"}).Demand()
	assert.ErrorIs(t, err, ErrEmptySale)

	o.LineItems[1].Quantity = -2
	_, err = o.Demand()
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSumSubtotals_Overflow(t *testing.T) {
	item := &InventoryItem{ID: "A", Name: "A", SalePrice: MustMoney("5.00")}

	_, err := SumSubtotals([]LineItem{NewLineItem(item, math.MaxInt)})
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = SumSubtotals([]LineItem{NewLineItem(item, -2)})
	assert.ErrorIs(t, err, ErrInvalidMultiplier)
}

func TestOrder_Clone(t *testing.T) {
	at := time.Now()
	o := &Order{ID: "o1", LineItems: []LineItem{{ItemID: "A", Quantity: 1}}, CompletedAt: &at}
	c := o.Clone()
	c.LineItems[0].Quantity = 9
	*c.CompletedAt = at.Add(time.Hour)

	assert.Equal(t, 1, o.LineItems[0].Quantity)
	assert.Equal(t, at, *o.CompletedAt)
}
