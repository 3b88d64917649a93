package domain

import (
	"context"
	"time"
)

// InventoryRepository persists items and their history outside transactions
type InventoryRepository interface {
	// Upsert merges fields into the item, creating it if needed, and returns the stored item
	Upsert(ctx context.Context, id string, fields ItemFields) (*InventoryItem, error)
	FindByID(ctx context.Context, id string) (*InventoryItem, error)
	// FindAll returns every item ordered by case-insensitive name
	FindAll(ctx context.Context) ([]*InventoryItem, error)
	// AppendHistory inserts entry; re-inserting the same entry id is a no-op
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	// FindHistory returns an item's entries, newest first
	FindHistory(ctx context.Context, itemID string) ([]*HistoryEntry, error)
	// DeleteHistoryPage deletes up to limit entries and reports how many went
	DeleteHistoryPage(ctx context.Context, itemID string, limit int) (int, error)
	Delete(ctx context.Context, id string) error
}

// OrderRepository persists orders outside transactions
type OrderRepository interface {
	// Insert stores a new order; an existing id yields ErrDuplicateSale
	Insert(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// FindByStatus returns orders newest first; nil status means all
	FindByStatus(ctx context.Context, status *OrderStatus) ([]*Order, error)
	// FindCompletedInRange returns completed orders with completedAt in [start, end)
	FindCompletedInRange(ctx context.Context, start, end time.Time) ([]*Order, error)
	// UpdateStatus moves an order from one status to another
	UpdateStatus(ctx context.Context, id string, from, to OrderStatus) error
	// DeleteOpen deletes the order unless it is completed
	DeleteOpen(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// EventRecorder durably records domain events for asynchronous relay
type EventRecorder interface {
	Record(ctx context.Context, events ...DomainEvent) error
}

// Tx is the handle a ledger transaction works through. Reads observe one
// snapshot; writes become visible only when the runner commits.
type Tx interface {
	GetItem(ctx context.Context, id string) (*InventoryItem, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	SetItemQuantity(ctx context.Context, id string, quantity int, at time.Time) error
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	CompleteOrder(ctx context.Context, id string, completedAt time.Time) error
	// CreateOrder inserts; an existing id yields ErrDuplicateSale
	CreateOrder(ctx context.Context, order *Order) error
	Publish(ctx context.Context, events ...DomainEvent) error
}

// TransactionRunner executes fn atomically. Either every write fn staged is
// committed or none is. Store conflicts are retried a bounded number of times,
// so fn may run more than once and must not have outside side effects.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
