package memory

import (
	"context"
	"time"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

type stagedQuantity struct {
	quantity int
	at       time.Time
}

type memTx struct {
	s *Store

	quantities map[string]stagedQuantity
	history    []*domain.HistoryEntry
	completed  map[string]time.Time
	created    map[string]*domain.Order
	events     []domain.DomainEvent
}

func newTx(s *Store) *memTx {
	return &memTx{
		s:          s,
		quantities: make(map[string]stagedQuantity),
		completed:  make(map[string]time.Time),
		created:    make(map[string]*domain.Order),
	}
}

func (t *memTx) GetItem(_ context.Context, id string) (*domain.InventoryItem, error) {
	t.s.mu.RLock()
	item, ok := t.s.items[id]
	t.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if staged, ok := t.quantities[id]; ok {
		item.Quantity = staged.quantity
		item.UpdatedAt = staged.at
	}
	return &item, nil
}

func (t *memTx) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := t.created[id]; ok {
		return o.Clone(), nil
	}

	t.s.mu.RLock()
	o, ok := t.s.orders[id]
	t.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	c := o.Clone()
	if at, ok := t.completed[id]; ok {
		c.Status = domain.OrderStatusCompleted
		c.CompletedAt = &at
	}
	return c, nil
}

func (t *memTx) SetItemQuantity(ctx context.Context, id string, quantity int, at time.Time) error {
	if _, err := t.GetItem(ctx, id); err != nil {
		return err
	}
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	t.quantities[id] = stagedQuantity{quantity: quantity, at: at}
	return nil
}

func (t *memTx) AppendHistory(_ context.Context, entry *domain.HistoryEntry) error {
	e := *entry
	t.history = append(t.history, &e)
	return nil
}

func (t *memTx) CompleteOrder(ctx context.Context, id string, completedAt time.Time) error {
	if o, ok := t.created[id]; ok {
		return o.Complete(completedAt)
	}
	o, err := t.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := o.CheckCompletable(); err != nil {
		return err
	}
	t.completed[id] = completedAt
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, order *domain.Order) error {
	if _, ok := t.created[order.ID]; ok {
		return domain.ErrDuplicateSale
	}
	t.s.mu.RLock()
	_, exists := t.s.orders[order.ID]
	t.s.mu.RUnlock()
	if exists {
		return domain.ErrDuplicateSale
	}
	t.created[order.ID] = order.Clone()
	return nil
}

func (t *memTx) Publish(_ context.Context, events ...domain.DomainEvent) error {
	t.events = append(t.events, events...)
	return nil
}

// commit applies every staged write or none of them
func (t *memTx) commit(ctx context.Context) error {
	rows, err := t.s.recorder.Build(ctx, t.events...)
	if err != nil {
		return err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if err := t.s.enter("commit"); err != nil {
		return err
	}
	for id := range t.quantities {
		if _, ok := t.s.items[id]; !ok {
			return domain.ErrItemNotFound
		}
	}
	for id := range t.completed {
		o, ok := t.s.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		if err := o.CheckCompletable(); err != nil {
			return err
		}
	}
	for id := range t.created {
		if _, ok := t.s.orders[id]; ok {
			return domain.ErrDuplicateSale
		}
	}

	for id, staged := range t.quantities {
		item := t.s.items[id]
		item.Quantity = staged.quantity
		item.UpdatedAt = staged.at
		t.s.items[id] = item
	}
	for _, e := range t.history {
		t.s.appendHistoryLocked(e)
	}
	for id, at := range t.completed {
		o := t.s.orders[id].Clone()
		completedAt := at
		o.Status = domain.OrderStatusCompleted
		o.CompletedAt = &completedAt
		t.s.orders[id] = o
	}
	for id, o := range t.created {
		t.s.orders[id] = o
	}
	t.s.outbox.add(rows)
	return nil
}
