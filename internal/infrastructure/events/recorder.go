package events

import (
	"context"
	"fmt"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/cloudevents"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/kafka"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/outbox"
)

// Aggregate types stored on outbox rows
const (
	AggregateOrder = "Order"
	AggregateItem  = "InventoryItem"
)

// Route returns the Kafka topic and aggregate type for an event type
func Route(eventType string) (topic, aggregateType string) {
	switch eventType {
	case cloudevents.SaleCompleted, cloudevents.DirectSaleRecorded:
		return kafka.Topics.SalesEvents, AggregateOrder
	case cloudevents.OrderCreated, cloudevents.OrderCancelled:
		return kafka.Topics.OrdersEvents, AggregateOrder
	case cloudevents.LowStockAlert:
		return kafka.Topics.AlertsEvents, AggregateItem
	default:
		return kafka.Topics.InventoryEvents, AggregateItem
	}
}

// OutboxRecorder turns domain events into CloudEvents stored in the outbox
type OutboxRecorder struct {
	factory *cloudevents.EventFactory
	repo    outbox.Repository
}

// NewOutboxRecorder creates a recorder writing to repo
func NewOutboxRecorder(repo outbox.Repository) *OutboxRecorder {
	return &OutboxRecorder{
		factory: cloudevents.NewEventFactory(cloudevents.SourceStockLedger),
		repo:    repo,
	}
}

// Build converts events into outbox rows without storing them
func (r *OutboxRecorder) Build(ctx context.Context, events ...domain.DomainEvent) ([]*outbox.OutboxEvent, error) {
	rows := make([]*outbox.OutboxEvent, 0, len(events))
	for _, e := range events {
		topic, aggregateType := Route(e.EventType())
		ce := r.factory.CreateEvent(ctx, e.EventType(), e.AggregateID(), e)
		ce.Time = e.OccurredAt().UTC()

		row, err := outbox.NewOutboxEventFromCloudEvent(e.AggregateID(), aggregateType, topic, ce)
		if err != nil {
			return nil, fmt.Errorf("failed to build outbox event %s: %w", e.EventType(), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Record builds and stores events. With a session context the insert joins
// the surrounding transaction.
func (r *OutboxRecorder) Record(ctx context.Context, events ...domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows, err := r.Build(ctx, events...)
	if err != nil {
		return err
	}
	return r.repo.SaveAll(ctx, rows)
}
