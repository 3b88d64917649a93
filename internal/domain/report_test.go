package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	line := func(id, name string, qty int, sale, purchase string) LineItem {
		return LineItem{ItemID: id, Name: name, Quantity: qty, SalePrice: MustMoney(sale), PurchasePrice: MustMoney(purchase)}
	}
	order := func(id string, method PaymentMethod, customer string, lines ...LineItem) *Order {
		total, err := SumSubtotals(lines)
		require.NoError(t, err)
		return &Order{ID: id, Status: OrderStatusCompleted, PaymentMethod: method, CustomerName: customer, LineItems: lines, Price: total}
	}

	orders := []*Order{
		order("1", PaymentCash, DefaultCustomerName, line("A", "Arroz", 2, "5.00", "3.00")),
		order("2", PaymentCredit, "Marta", line("B", "Bocadillo", 3, "1.00", "0.50"), line("A", "Arroz", 1, "5.00", "3.00")),
		order("3", PaymentCredit, "Marta", line("C", "Cafe", 3, "4.00", "2.00")),
		{ID: "4", Status: OrderStatusPending, Price: MustMoney("100")},
	}

	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	s, err := Summarize("2024-03-01", orders, 2, now)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Transactions)
	assert.Equal(t, int64(1000), s.CashTotal.Amount())
	assert.Equal(t, int64(2000), s.CreditTotal.Amount())
	assert.Equal(t, int64(3000), s.Revenue.Amount())
	assert.Equal(t, int64(2000), s.CreditByCustomer["Marta"].Amount())
	// (2*2.00) + (3*0.50 + 1*2.00) + 3*2.00
	assert.Equal(t, int64(1350), s.GrossMargin)

	require.Len(t, s.TopSellers, 2)
	// three-way tie at 3 units broken by name
	assert.Equal(t, "Arroz", s.TopSellers[0].Name)
	assert.Equal(t, "Bocadillo", s.TopSellers[1].Name)
}

func TestSummarize_CurrencyMismatch(t *testing.T) {
	usd, err := NewMoney(500, "USD")
	require.NoError(t, err)

	orders := []*Order{
		{ID: "1", Status: OrderStatusCompleted, PaymentMethod: PaymentCash, Price: MustMoney("10.00")},
		{ID: "2", Status: OrderStatusCompleted, PaymentMethod: PaymentCredit, CustomerName: "Marta", Price: usd},
	}

	s, err := Summarize("2024-03-01", orders, 0, time.Now())
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	assert.ErrorContains(t, err, "order 2")
	assert.Nil(t, s)
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("COT", -5*3600)
	start, end := DayBounds(time.Date(2024, 3, 1, 23, 30, 0, 0, loc), loc)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
