package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/tracing"
)

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent wraps data in an envelope, carrying the correlation id and
// trace context found in ctx
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *LedgerCloudEvent {
	event := &LedgerCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now(),
		DataContentType: "application/json",
		Data:            data,
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
	}

	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	event.TraceParent = carrier.Get("traceparent")
	event.TraceState = carrier.Get("tracestate")

	return event
}
