package kafka

import (
	"context"
	"log/slog"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/cloudevents"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"
	"github.com/sony/gobreaker"
)

// CircuitBreakerProducer stops hammering an unreachable broker; the outbox keeps the events meanwhile
type CircuitBreakerProducer struct {
	next    EventPublisher
	breaker *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer wraps next with a "kafka-producer" breaker
func NewCircuitBreakerProducer(next EventPublisher, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	config.MaxRequests = 5
	if m != nil {
		config.OnStateChange = func(name string, _, to gobreaker.State) {
			m.SetCircuitBreakerState(name, int(to))
		}
	}

	var slogLogger *slog.Logger
	if logger != nil {
		slogLogger = logger.Logger
	}

	return &CircuitBreakerProducer{
		next:    next,
		breaker: resilience.NewCircuitBreaker(config, slogLogger),
	}
}

// PublishEvent publishes through the breaker
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error {
	return p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.next.PublishEvent(ctx, topic, event)
	})
}

// NewProductionProducer assembles writer, breaker and instrumentation
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) (*Producer, EventPublisher) {
	raw := NewProducer(config)
	return raw, NewCircuitBreakerProducer(NewInstrumentedProducer(raw, m, logger), m, logger)
}
