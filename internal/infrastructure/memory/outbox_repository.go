package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/outbox"
)

// OutboxRepository implements outbox.Repository in memory
type OutboxRepository struct {
	mu     sync.Mutex
	events []*outbox.OutboxEvent
}

// NewOutboxRepository creates an empty outbox
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) add(events []*outbox.OutboxEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		c := *e
		r.events = append(r.events, &c)
	}
}

func (r *OutboxRepository) SaveAll(_ context.Context, events []*outbox.OutboxEvent) error {
	r.add(events)
	return nil
}

func (r *OutboxRepository) FindUnpublished(_ context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*outbox.OutboxEvent, 0)
	for _, e := range r.events {
		if !e.ShouldRetry() {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *OutboxRepository) find(id string) (*outbox.OutboxEvent, error) {
	for _, e := range r.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("outbox event not found: %s", id)
}

func (r *OutboxRepository) MarkPublished(_ context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.find(eventID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	e.PublishedAt = &now
	return nil
}

func (r *OutboxRepository) IncrementRetry(_ context.Context, eventID string, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.find(eventID)
	if err != nil {
		return err
	}
	e.RetryCount++
	e.LastError = errorMsg
	return nil
}

func (r *OutboxRepository) FindByAggregateID(_ context.Context, aggregateID string) ([]*outbox.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*outbox.OutboxEvent, 0)
	for _, e := range r.events {
		if e.AggregateID == aggregateID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// All returns a copy of every stored event
func (r *OutboxRepository) All() []*outbox.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*outbox.OutboxEvent, len(r.events))
	for i, e := range r.events {
		c := *e
		out[i] = &c
	}
	return out
}
