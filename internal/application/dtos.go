package application

import (
	"time"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// InventoryItemDTO represents an inventory item in responses
type InventoryItemDTO struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Quantity      int          `json:"quantity"`
	PurchasePrice domain.Money `json:"purchasePrice"`
	SalePrice     domain.Money `json:"salePrice"`
	MinStockAlert int          `json:"minStockAlert"`
	LowStock      bool         `json:"lowStock"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// HistoryEntryDTO represents one line of an item's audit trail
type HistoryEntryDTO struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"itemId"`
	Timestamp      time.Time `json:"timestamp"`
	Type           string    `json:"type"`
	QuantityChange int       `json:"quantityChange"`
	Details        string    `json:"details"`
}

// DeleteItemResultDTO reports what an item deletion removed
type DeleteItemResultDTO struct {
	ItemID        string `json:"itemId"`
	HistoryPurged int    `json:"historyPurged"`
	Batches       int    `json:"batches"`
}

// InventoryValueDTO is the dashboard stock valuation
type InventoryValueDTO struct {
	Value domain.Money `json:"value"`
	Items int          `json:"items"`
	Units int          `json:"units"`
}

// LineItemDTO represents a priced line of an order
type LineItemDTO struct {
	ItemID        string       `json:"itemId"`
	Name          string       `json:"name"`
	Quantity      int          `json:"quantity"`
	SalePrice     domain.Money `json:"salePrice"`
	PurchasePrice domain.Money `json:"purchasePrice"`
	Subtotal      domain.Money `json:"subtotal"`
}

// OrderDTO represents an order in responses
type OrderDTO struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Price         domain.Money  `json:"price"`
	LineItems     []LineItemDTO `json:"lineItems"`
	Status        string        `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	PaymentMethod string        `json:"paymentMethod"`
	CustomerName  string        `json:"customerName"`
	IsDirectSale  bool          `json:"isDirectSale"`
}

// SaleResult is what both ledger operations return
type SaleResult struct {
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	Alerts  []string `json:"alerts"`
	OrderID string   `json:"orderId,omitempty"`
}
