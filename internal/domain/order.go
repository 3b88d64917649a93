package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order. Cancellation deletes the
// order instead of moving it to a state.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// PaymentMethod is how a sale was settled
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
)

// DefaultCustomerName is used for cash sales with no named customer
const DefaultCustomerName = "General Customer"

// Payment describes who pays and how
type Payment struct {
	Method       PaymentMethod
	CustomerName string
}

// Normalize applies defaults and rejects credit sales without a customer
func (p Payment) Normalize() (Payment, error) {
	p.CustomerName = strings.TrimSpace(p.CustomerName)
	switch p.Method {
	case "":
		p.Method = PaymentCash
	case PaymentCash, PaymentCredit:
	default:
		return Payment{}, ErrInvalidPaymentMethod
	}

	if p.CustomerName == "" {
		if p.Method == PaymentCredit {
			return Payment{}, ErrCreditCustomerRequired
		}
		p.CustomerName = DefaultCustomerName
	}
	return p, nil
}

// LineItem is a priced snapshot of one product taken when the sale was
// recorded. It never refers back to the live inventory document.
type LineItem struct {
	ItemID        string `bson:"itemId"`
	Name          string `bson:"name"`
	Quantity      int    `bson:"quantity"`
	SalePrice     Money  `bson:"salePrice"`
	PurchasePrice Money  `bson:"purchasePrice"`
}

// NewLineItem snapshots item's current name and prices
func NewLineItem(item *InventoryItem, quantity int) LineItem {
	return LineItem{
		ItemID:        item.ID,
		Name:          item.Name,
		Quantity:      quantity,
		SalePrice:     item.SalePrice,
		PurchasePrice: item.PurchasePrice,
	}
}

// Subtotal is sale price times quantity
func (l LineItem) Subtotal() (Money, error) {
	return l.SalePrice.Multiply(l.Quantity)
}

// Margin is (sale - purchase) times quantity; it may be negative
func (l LineItem) Margin() int64 {
	return (l.SalePrice.Amount() - l.PurchasePrice.Amount()) * int64(l.Quantity)
}

// SumSubtotals totals the line items
func SumSubtotals(lines []LineItem) (Money, error) {
	total := Money{}
	for _, l := range lines {
		subtotal, err := l.Subtotal()
		if err != nil {
			return Money{}, fmt.Errorf("line %s: %w", l.ItemID, err)
		}
		if total, err = total.Add(subtotal); err != nil {
			return Money{}, err
		}
	}
	if total.Currency() == "" {
		total = ZeroMoney(DefaultCurrency)
	}
	return total, nil
}

// Order is a basket or sale document with its line items embedded
type Order struct {
	ID            string        `bson:"_id"`
	Title         string        `bson:"title"`
	Price         Money         `bson:"price"`
	LineItems     []LineItem    `bson:"lineItems"`
	Status        OrderStatus   `bson:"status"`
	Timestamp     time.Time     `bson:"timestamp"`
	CompletedAt   *time.Time    `bson:"completedAt,omitempty"`
	PaymentMethod PaymentMethod `bson:"paymentMethod"`
	CustomerName  string        `bson:"customerName"`
	IsDirectSale  bool          `bson:"isDirectSale"`
}

// Clone returns a deep copy
func (o *Order) Clone() *Order {
	c := *o
	c.LineItems = append([]LineItem(nil), o.LineItems...)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// DirectSaleTitle is "Direct Sale " plus the last dash-separated segment of saleID
func DirectSaleTitle(saleID string) string {
	parts := strings.Split(saleID, "-")
	return "Direct Sale " + parts[len(parts)-1]
}

// NewDirectSaleOrder builds the completed order recorded by a direct sale
func NewDirectSaleOrder(saleID string, lines []LineItem, payment Payment, now time.Time) (*Order, error) {
	total, err := SumSubtotals(lines)
	if err != nil {
		return nil, err
	}
	completedAt := now
	return &Order{
		ID:            saleID,
		Title:         DirectSaleTitle(saleID),
		Price:         total,
		LineItems:     lines,
		Status:        OrderStatusCompleted,
		Timestamp:     now,
		CompletedAt:   &completedAt,
		PaymentMethod: payment.Method,
		CustomerName:  payment.CustomerName,
		IsDirectSale:  true,
	}, nil
}

// CheckCompletable rejects orders already in the terminal state
func (o *Order) CheckCompletable() error {
	if o.Status == OrderStatusCompleted {
		return ErrOrderAlreadyCompleted
	}
	return nil
}

// Complete moves the order to its terminal state
func (o *Order) Complete(at time.Time) error {
	if err := o.CheckCompletable(); err != nil {
		return err
	}
	o.Status = OrderStatusCompleted
	o.CompletedAt = &at
	return nil
}

// MarkProcessing moves a pending order to processing
func (o *Order) MarkProcessing() error {
	if o.Status != OrderStatusPending {
		return ErrInvalidStatusChange
	}
	o.Status = OrderStatusProcessing
	return nil
}

// Demand returns the requested quantity per item, summed over repeated
// items, in first-seen order
func (o *Order) Demand() ([]SaleLine, error) {
	lines := make([]SaleLine, 0, len(o.LineItems))
	for _, l := range o.LineItems {
		lines = append(lines, SaleLine{ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity})
	}
	return AggregateDemand(lines)
}

// SaleLine is a caller-declared request for units of one item
type SaleLine struct {
	ItemID   string
	Name     string
	Quantity int
}

// AggregateDemand validates sale lines and merges repeats of the same item
func AggregateDemand(lines []SaleLine) ([]SaleLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptySale
	}

	index := make(map[string]int, len(lines))
	merged := make([]SaleLine, 0, len(lines))
	for _, l := range lines {
		if err := ValidateItemID(l.ItemID); err != nil {
			return nil, err
		}
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[l.ItemID]; ok {
			if l.Quantity > math.MaxInt-merged[i].Quantity {
				return nil, ErrInvalidQuantity
			}
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ItemID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}
