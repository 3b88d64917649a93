package outbox

import "context"

// Repository defines the interface for outbox event persistence
type Repository interface {
	// SaveAll saves multiple outbox events; inside a session context the
	// write joins the caller's transaction
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished retrieves unpublished, retryable events oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// MarkPublished marks an event as published
	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry increments the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// FindByAggregateID retrieves all events for a specific aggregate
	FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error)
}
