package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all stock ledger metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec
	TransactionConflicts     *prometheus.CounterVec

	// Ledger metrics
	LedgerTransactions *prometheus.CounterVec
	LedgerDuration     *prometheus.HistogramVec
	StockUnitsSold     *prometheus.CounterVec
	LowStockAlerts     prometheus.Counter
	RetryAttempts      *prometheus.CounterVec

	// Outbox / Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec
	OutboxPending        prometheus.Gauge
	OutboxPublished      *prometheus.CounterVec
	OutboxRetries        *prometheus.CounterVec

	// Report cache
	ReportCacheLookups *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "rapitienda",
	}
}

// New creates a new Metrics instance on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"service", "method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "mongodb_operations_total", Help: "Total number of MongoDB commands"},
		[]string{"service", "collection", "operation", "status"},
	)
	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB command duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "collection", "operation"},
	)
	m.TransactionConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "transaction_conflicts_total", Help: "Store transactions retried after a conflict"},
		[]string{"service", "operation"},
	)

	m.LedgerTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "ledger_transactions_total", Help: "Ledger transactions by operation and outcome"},
		[]string{"service", "operation", "outcome"},
	)
	m.LedgerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "ledger_transaction_duration_seconds",
			Help:      "Ledger transaction duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "operation"},
	)
	m.StockUnitsSold = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "stock_units_sold_total", Help: "Inventory units decremented by sales"},
		[]string{"service", "channel"},
	)
	m.LowStockAlerts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "low_stock_alerts_total",
			Help:        "Low-stock alerts raised by completed sales",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)
	m.RetryAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "retry_failed_attempts_total", Help: "Failed attempts seen by the retry policy"},
		[]string{"service", "operation"},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)
	m.OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "outbox_pending_events",
			Help:        "Outbox events waiting to be relayed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)
	m.OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "outbox_events_relayed_total", Help: "Outbox relay attempts by event type and status"},
		[]string{"service", "event_type", "status"},
	)
	m.OutboxRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "outbox_event_retries_total", Help: "Outbox events scheduled for another relay attempt"},
		[]string{"service", "event_type"},
	)

	m.ReportCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "report_cache_lookups_total", Help: "Daily report cache lookups by result"},
		[]string{"service", "result"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)"},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.TransactionConflicts,
		m.LedgerTransactions,
		m.LedgerDuration,
		m.StockUnitsSold,
		m.LowStockAlerts,
		m.RetryAttempts,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.OutboxPending,
		m.OutboxPublished,
		m.OutboxRetries,
		m.ReportCacheLookups,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordMongoDBOperation records a MongoDB command
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordTransactionConflict records a transaction that will be re-run after a write conflict
func (m *Metrics) RecordTransactionConflict(operation string) {
	m.TransactionConflicts.WithLabelValues(m.serviceName, operation).Inc()
}

// RecordLedgerTransaction records a ledger outcome such as "committed", "insufficient_stock" or "not_found"
func (m *Metrics) RecordLedgerTransaction(operation, outcome string, duration time.Duration) {
	m.LedgerTransactions.WithLabelValues(m.serviceName, operation, outcome).Inc()
	m.LedgerDuration.WithLabelValues(m.serviceName, operation).Observe(duration.Seconds())
}

// RecordUnitsSold adds decremented stock units for a sales channel ("order" or "direct")
func (m *Metrics) RecordUnitsSold(channel string, units int) {
	m.StockUnitsSold.WithLabelValues(m.serviceName, channel).Add(float64(units))
}

// RecordLowStockAlerts adds raised alerts
func (m *Metrics) RecordLowStockAlerts(count int) {
	m.LowStockAlerts.Add(float64(count))
}

// RecordRetryAttempt records a failed attempt seen by the retry policy
func (m *Metrics) RecordRetryAttempt(operation string) {
	m.RetryAttempts.WithLabelValues(m.serviceName, operation).Inc()
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of pending outbox events seen in the last poll
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxPublish records an outbox relay attempt
func (m *Metrics) RecordOutboxPublish(eventType string, success bool) {
	m.OutboxPublished.WithLabelValues(m.serviceName, eventType, status(success)).Inc()
}

// RecordOutboxRetry records an outbox event that will be retried
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

// RecordReportCache records a cache "hit", "miss" or "error"
func (m *Metrics) RecordReportCache(result string) {
	m.ReportCacheLookups.WithLabelValues(m.serviceName, result).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}
