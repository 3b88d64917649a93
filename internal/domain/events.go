package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// SaleCompletedEvent is published when an order is completed or a direct sale recorded
type SaleCompletedEvent struct {
	OrderID       string        `json:"orderId"`
	Title         string        `json:"title"`
	Total         Money         `json:"total"`
	Units         int           `json:"units"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CustomerName  string        `json:"customerName"`
	IsDirectSale  bool          `json:"isDirectSale"`
	CompletedAt   time.Time     `json:"completedAt"`
}

func (e *SaleCompletedEvent) EventType() string {
	if e.IsDirectSale {
		return "rapitienda.sale.direct-recorded"
	}
	return "rapitienda.sale.completed"
}
func (e *SaleCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }
func (e *SaleCompletedEvent) AggregateID() string   { return e.OrderID }

// NewSaleCompletedEvent summarises a completed order
func NewSaleCompletedEvent(o *Order) *SaleCompletedEvent {
	units := 0
	for _, l := range o.LineItems {
		units += l.Quantity
	}
	at := o.Timestamp
	if o.CompletedAt != nil {
		at = *o.CompletedAt
	}
	return &SaleCompletedEvent{
		OrderID:       o.ID,
		Title:         o.Title,
		Total:         o.Price,
		Units:         units,
		PaymentMethod: o.PaymentMethod,
		CustomerName:  o.CustomerName,
		IsDirectSale:  o.IsDirectSale,
		CompletedAt:   at,
	}
}

// LowStockAlertEvent is published when a sale leaves an item inside its alert band
type LowStockAlertEvent struct {
	ItemID          string    `json:"itemId"`
	Name            string    `json:"name"`
	CurrentQuantity int       `json:"currentQuantity"`
	MinStockAlert   int       `json:"minStockAlert"`
	Message         string    `json:"message"`
	SaleID          string    `json:"saleId"`
	AlertedAt       time.Time `json:"alertedAt"`
}

func (e *LowStockAlertEvent) EventType() string     { return "rapitienda.inventory.low-stock-alert" }
func (e *LowStockAlertEvent) OccurredAt() time.Time { return e.AlertedAt }
func (e *LowStockAlertEvent) AggregateID() string   { return e.ItemID }

// OrderCreatedEvent is published when a basket order is created
type OrderCreatedEvent struct {
	OrderID   string    `json:"orderId"`
	Title     string    `json:"title"`
	Total     Money     `json:"total"`
	Lines     int       `json:"lines"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *OrderCreatedEvent) EventType() string     { return "rapitienda.order.created" }
func (e *OrderCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }
func (e *OrderCreatedEvent) AggregateID() string   { return e.OrderID }

// OrderCancelledEvent is published when an open order is deleted
type OrderCancelledEvent struct {
	OrderID     string    `json:"orderId"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *OrderCancelledEvent) EventType() string     { return "rapitienda.order.cancelled" }
func (e *OrderCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }
func (e *OrderCancelledEvent) AggregateID() string   { return e.OrderID }

// ItemSavedEvent is published after a direct item save
type ItemSavedEvent struct {
	ItemID   string    `json:"itemId"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	IsNew    bool      `json:"isNew"`
	SavedAt  time.Time `json:"savedAt"`
}

func (e *ItemSavedEvent) EventType() string     { return "rapitienda.inventory.item-saved" }
func (e *ItemSavedEvent) OccurredAt() time.Time { return e.SavedAt }
func (e *ItemSavedEvent) AggregateID() string   { return e.ItemID }

// ItemDeletedEvent is published after an item and its history are removed
type ItemDeletedEvent struct {
	ItemID        string    `json:"itemId"`
	HistoryPurged int       `json:"historyPurged"`
	DeletedAt     time.Time `json:"deletedAt"`
}

func (e *ItemDeletedEvent) EventType() string     { return "rapitienda.inventory.item-deleted" }
func (e *ItemDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }
func (e *ItemDeletedEvent) AggregateID() string   { return e.ItemID }
