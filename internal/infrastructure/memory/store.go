package memory

import (
	"context"
	"sync"
	"time"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/infrastructure/events"
)

// Store keeps items, history, orders and outbox rows in process memory.
// Transactions are serialised; each one stages its writes and applies them
// in a single critical section on commit.
type Store struct {
	txMu sync.Mutex

	mu      sync.RWMutex
	items   map[string]domain.InventoryItem
	history map[string][]*domain.HistoryEntry
	entries map[string]struct{}
	orders  map[string]*domain.Order

	outbox   *OutboxRepository
	recorder *events.OutboxRecorder

	faults map[string]*fault
	calls  map[string]int

	now func() time.Time
}

type fault struct {
	remaining int
	err       error
}

// NewStore creates an empty store
func NewStore() *Store {
	ob := NewOutboxRepository()
	return &Store{
		items:    make(map[string]domain.InventoryItem),
		history:  make(map[string][]*domain.HistoryEntry),
		entries:  make(map[string]struct{}),
		orders:   make(map[string]*domain.Order),
		outbox:   ob,
		recorder: events.NewOutboxRecorder(ob),
		faults:   make(map[string]*fault),
		calls:    make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Inventory returns the inventory repository view of the store
func (s *Store) Inventory() *InventoryRepository {
	return &InventoryRepository{s: s}
}

// Orders returns the order repository view of the store
func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{s: s}
}

// Outbox returns the outbox repository
func (s *Store) Outbox() *OutboxRepository {
	return s.outbox
}

// Recorder records events into the store's outbox
func (s *Store) Recorder() domain.EventRecorder {
	return s.recorder
}

// InjectFault makes the next n calls of op fail with err
func (s *Store) InjectFault(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{remaining: n, err: err}
}

// Calls reports how many times op was invoked, failed calls included
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// enter counts a call to op and returns an injected fault, if any.
// Callers hold s.mu for writing.
func (s *Store) enter(op string) error {
	s.calls[op]++
	f, ok := s.faults[op]
	if !ok || f.remaining == 0 {
		return nil
	}
	f.remaining--
	return f.err
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (s *Store) Close(context.Context) error {
	return nil
}

// RunInTransaction implements domain.TransactionRunner
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := newTx(s)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}
