package memory

import (
	"context"
	"sort"
	"time"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// OrderRepository implements domain.OrderRepository over a Store
type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Insert(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("insertOrder"); err != nil {
		return err
	}

	if _, ok := r.s.orders[order.ID]; ok {
		return domain.ErrDuplicateSale
	}
	r.s.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("findOrder"); err != nil {
		return nil, err
	}

	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) FindByStatus(_ context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("findOrders"); err != nil {
		return nil, err
	}

	out := make([]*domain.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *OrderRepository) FindCompletedInRange(_ context.Context, start, end time.Time) ([]*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("findOrdersInRange"); err != nil {
		return nil, err
	}

	out := make([]*domain.Order, 0)
	for _, o := range r.s.orders {
		if o.Status != domain.OrderStatusCompleted || o.CompletedAt == nil {
			continue
		}
		if o.CompletedAt.Before(start) || !o.CompletedAt.Before(end) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(*out[j].CompletedAt)
	})
	return out, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("updateOrderStatus"); err != nil {
		return err
	}

	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrInvalidStatusChange
	}
	c := o.Clone()
	c.Status = to
	r.s.orders[id] = c
	return nil
}

func (r *OrderRepository) DeleteOpen(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("deleteOrder"); err != nil {
		return err
	}

	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status == domain.OrderStatusCompleted {
		return domain.ErrOrderAlreadyCompleted
	}
	delete(r.s.orders, id)
	return nil
}

func (r *OrderRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.orders)), nil
}
