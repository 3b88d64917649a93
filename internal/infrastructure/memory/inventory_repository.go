package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// InventoryRepository implements domain.InventoryRepository over a Store
type InventoryRepository struct {
	s *Store
}

func (r *InventoryRepository) Upsert(_ context.Context, id string, fields domain.ItemFields) (*domain.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("upsertItem"); err != nil {
		return nil, err
	}

	item, ok := r.s.items[id]
	if !ok {
		item = domain.InventoryItem{
			ID:            id,
			PurchasePrice: domain.ZeroMoney(domain.DefaultCurrency),
			SalePrice:     domain.ZeroMoney(domain.DefaultCurrency),
		}
	}
	fields.ApplyTo(&item, r.s.now())
	r.s.items[id] = item

	out := item
	return &out, nil
}

func (r *InventoryRepository) FindByID(_ context.Context, id string) (*domain.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("findItem"); err != nil {
		return nil, err
	}

	item, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (r *InventoryRepository) FindAll(_ context.Context) ([]*domain.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("findAllItems"); err != nil {
		return nil, err
	}

	items := make([]*domain.InventoryItem, 0, len(r.s.items))
	for _, item := range r.s.items {
		it := item
		items = append(items, &it)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a != b {
			return a < b
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *InventoryRepository) AppendHistory(_ context.Context, entry *domain.HistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("appendHistory"); err != nil {
		return err
	}

	e := *entry
	r.s.appendHistoryLocked(&e)
	return nil
}

// appendHistoryLocked ignores entry ids that were already stored
func (s *Store) appendHistoryLocked(e *domain.HistoryEntry) {
	if _, dup := s.entries[e.ID]; dup {
		return
	}
	s.entries[e.ID] = struct{}{}
	s.history[e.ItemID] = append(s.history[e.ItemID], e)
}

func (r *InventoryRepository) FindHistory(_ context.Context, itemID string) ([]*domain.HistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("findHistory"); err != nil {
		return nil, err
	}

	stored := r.s.history[itemID]
	out := make([]*domain.HistoryEntry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		e := *stored[i]
		out = append(out, &e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (r *InventoryRepository) DeleteHistoryPage(_ context.Context, itemID string, limit int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("deleteHistoryPage"); err != nil {
		return 0, err
	}

	stored := r.s.history[itemID]
	n := min(limit, len(stored))
	for _, e := range stored[:n] {
		delete(r.s.entries, e.ID)
	}
	if rest := stored[n:]; len(rest) > 0 {
		r.s.history[itemID] = rest
	} else {
		delete(r.s.history, itemID)
	}
	return n, nil
}

func (r *InventoryRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("deleteItem"); err != nil {
		return err
	}

	// deleting a missing item succeeds so retried deletes stay idempotent
	delete(r.s.items, id)
	return nil
}
