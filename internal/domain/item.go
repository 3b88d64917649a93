package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryPurgeBatchSize is the page size used when deleting an item's history
const HistoryPurgeBatchSize = 20

// HistoryType classifies a quantity change in the audit trail
type HistoryType string

const (
	HistoryInitialStock     HistoryType = "InitialStock"
	HistoryManualAdjustment HistoryType = "ManualAdjustment"
	HistorySaleCompleted    HistoryType = "SaleCompleted"
	HistoryDirectSale       HistoryType = "DirectSale"
)

// IsValid checks if the history type is valid
func (t HistoryType) IsValid() bool {
	switch t {
	case HistoryInitialStock, HistoryManualAdjustment, HistorySaleCompleted, HistoryDirectSale:
		return true
	default:
		return false
	}
}

// InventoryItem is a stock keeping unit identified by its barcode or SKU
type InventoryItem struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Quantity      int       `bson:"quantity"`
	PurchasePrice Money     `bson:"purchasePrice"`
	SalePrice     Money     `bson:"salePrice"`
	MinStockAlert int       `bson:"minStockAlert"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

// ValidateItemID checks that id can be used as a document key
func ValidateItemID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "/$") {
		return ErrInvalidItemID
	}
	return nil
}

// Available reports whether requested units can be taken from the item
func (i *InventoryItem) Available(requested int) error {
	if requested <= 0 {
		return ErrInvalidQuantity
	}
	if requested > i.Quantity {
		return &InsufficientStockError{
			ItemID:    i.ID,
			Name:      i.Name,
			Available: i.Quantity,
			Requested: requested,
		}
	}
	return nil
}

// StockValue is quantity times purchase price
func (i *InventoryItem) StockValue() (Money, error) {
	return i.PurchasePrice.Multiply(i.Quantity)
}

// IsLowStock reports whether the item sits inside its alert band
func (i *InventoryItem) IsLowStock() bool {
	_, low := EvaluateLowStock(i.Name, i.Quantity, i.MinStockAlert)
	return low
}

// ItemFields is a partial item write; nil fields keep their stored value
type ItemFields struct {
	Name          *string
	Quantity      *int
	PurchasePrice *Money
	SalePrice     *Money
	MinStockAlert *int
}

// Validate checks the supplied fields. New items must carry a name.
func (f ItemFields) Validate(isNew bool) error {
	if f.Name != nil && strings.TrimSpace(*f.Name) == "" {
		return ErrItemNameRequired
	}
	if isNew && f.Name == nil {
		return ErrItemNameRequired
	}
	if f.Quantity != nil && *f.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if f.MinStockAlert != nil && *f.MinStockAlert < 0 {
		return ErrInvalidThreshold
	}
	return nil
}

// ApplyTo merges the supplied fields into item
func (f ItemFields) ApplyTo(item *InventoryItem, now time.Time) {
	if f.Name != nil {
		item.Name = strings.TrimSpace(*f.Name)
	}
	if f.Quantity != nil {
		item.Quantity = *f.Quantity
	}
	if f.PurchasePrice != nil {
		item.PurchasePrice = *f.PurchasePrice
	}
	if f.SalePrice != nil {
		item.SalePrice = *f.SalePrice
	}
	if f.MinStockAlert != nil {
		item.MinStockAlert = *f.MinStockAlert
	}
	item.UpdatedAt = now
}

// HistoryEntry is one immutable line of an item's audit trail
type HistoryEntry struct {
	ID             string      `bson:"_id"`
	ItemID         string      `bson:"itemId"`
	Timestamp      time.Time   `bson:"timestamp"`
	Type           HistoryType `bson:"type"`
	QuantityChange int         `bson:"quantityChange"`
	Details        string      `bson:"details"`
}

// NewHistoryEntry creates an entry with a fresh id
func NewHistoryEntry(itemID string, t HistoryType, change int, details string, at time.Time) *HistoryEntry {
	return &HistoryEntry{
		ID:             uuid.New().String(),
		ItemID:         itemID,
		Timestamp:      at,
		Type:           t,
		QuantityChange: change,
		Details:        details,
	}
}

// SaveHistoryEntry builds the single entry written by an item save. The
// change recorded is the post-write quantity, not a delta.
func SaveHistoryEntry(item *InventoryItem, isNew bool, details string, at time.Time) *HistoryEntry {
	t := HistoryManualAdjustment
	if isNew {
		t = HistoryInitialStock
	}
	if details == "" {
		if isNew {
			details = "Item created in the system."
		} else {
			details = "Item updated manually."
		}
	}
	return NewHistoryEntry(item.ID, t, item.Quantity, details, at)
}

// SaleDetails is the history detail text for a sale
func SaleDetails(saleID string) string {
	return "Sale ID: " + saleID
}
