package mongodb

import (
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"
)

// BreakerName labels the document store circuit breaker
const BreakerName = "mongodb"

// NewCircuitBreaker builds the breaker that guards non-transactional store calls
func NewCircuitBreaker(logger *logging.Logger, m *metrics.Metrics) *resilience.CircuitBreaker {
	config := resilience.DefaultCircuitBreakerConfig(BreakerName)
	config.MaxRequests = 5
	if m != nil {
		m.SetCircuitBreakerState(BreakerName, int(gobreaker.StateClosed))
		config.OnStateChange = func(name string, _, to gobreaker.State) {
			m.SetCircuitBreakerState(name, int(to))
		}
	}

	var slogLogger *slog.Logger
	if logger != nil {
		slogLogger = logger.Logger
	}

	return resilience.NewCircuitBreaker(config, slogLogger)
}
