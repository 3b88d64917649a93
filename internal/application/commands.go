package application

import (
	"time"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// SaveItemCommand creates or merges an inventory item. Nil fields keep the stored value.
type SaveItemCommand struct {
	ItemID        string
	IsNew         bool
	Name          *string
	Quantity      *int
	PurchasePrice *domain.Money
	SalePrice     *domain.Money
	MinStockAlert *int
	Details       string
}

// DeleteItemCommand removes an item and its whole history
type DeleteItemCommand struct {
	ItemID string
}

// OrderLineCommand requests units of one item for a basket order
type OrderLineCommand struct {
	ItemID   string
	Quantity int
}

// CreateOrderCommand represents the command to create a pending order
type CreateOrderCommand struct {
	Title         string
	Items         []OrderLineCommand
	PaymentMethod string
	CustomerName  string
}

// CompleteOrderCommand represents the command to complete an order
type CompleteOrderCommand struct {
	OrderID string
}

// SaleLineCommand is one line of a direct sale as declared by the caller.
// Price is informational only; the stored sale price is what gets charged.
type SaleLineCommand struct {
	ItemID   string
	Name     string
	Quantity int
	Price    *domain.Money
}

// DirectSaleCommand represents a point-of-sale checkout
type DirectSaleCommand struct {
	SaleID        string
	Items         []SaleLineCommand
	PaymentMethod string
	CustomerName  string
}

// OrdersInRangeQuery selects completed orders with completedAt in [Start, End)
type OrdersInRangeQuery struct {
	Start time.Time
	End   time.Time
}
