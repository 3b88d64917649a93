package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/cloudevents"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/tracing"
)

// InstrumentedProducer wraps a publisher with metrics, tracing and logging
type InstrumentedProducer struct {
	next    EventPublisher
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer
func NewInstrumentedProducer(next EventPublisher, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		next:    next,
		metrics: m,
		logger:  logger,
		tracer:  tracing.Tracer(),
	}
}

// PublishEvent publishes a CloudEvent with metrics and tracing
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error {
	// continue the trace that staged the event, if any
	if event.TraceParent != "" {
		ctx = tracing.ExtractTraceContext(ctx, tracing.MapCarrier{
			"traceparent": event.TraceParent,
			"tracestate":  event.TraceState,
		})
	}

	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(tracing.MessagingSpanAttributes(topic, "publish")...),
		trace.WithAttributes(
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
		),
	)

	err := p.next.PublishEvent(ctx, topic, event)
	duration := time.Since(start)
	tracing.EndSpan(span, err)

	success := err == nil
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, success, duration)
	}
	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, event.Type, success, duration)
	}

	return err
}
