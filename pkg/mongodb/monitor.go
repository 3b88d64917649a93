package mongodb

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/otel/trace"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/tracing"
)

// handshake and session bookkeeping commands are not worth a span
var ignoredCommands = map[string]bool{
	"hello":        true,
	"isMaster":     true,
	"ismaster":     true,
	"ping":         true,
	"saslStart":    true,
	"saslContinue": true,
	"buildInfo":    true,
	"endSessions":  true,
}

type inflight struct {
	ctx        context.Context
	span       trace.Span
	collection string
}

// Instrumentation turns driver command events into spans, metrics and debug logs
type Instrumentation struct {
	tracer  trace.Tracer
	metrics *metrics.Metrics
	logger  *logging.Logger

	mu       sync.Mutex
	inflight map[int64]inflight
}

// NewInstrumentation creates the command instrumentation. Any argument may be nil.
func NewInstrumentation(m *metrics.Metrics, logger *logging.Logger) *Instrumentation {
	return &Instrumentation{
		tracer:   tracing.Tracer(),
		metrics:  m,
		logger:   logger,
		inflight: make(map[int64]inflight),
	}
}

// Monitor returns the driver command monitor
func (i *Instrumentation) Monitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started:   i.started,
		Succeeded: i.succeeded,
		Failed:    i.failed,
	}
}

func (i *Instrumentation) started(ctx context.Context, evt *event.CommandStartedEvent) {
	if ignoredCommands[evt.CommandName] {
		return
	}

	collection, _ := evt.Command.Lookup(evt.CommandName).StringValueOK()
	spanCtx, span := i.tracer.Start(ctx, "mongodb."+evt.CommandName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.DatabaseSpanAttributes(evt.DatabaseName, evt.CommandName, collection)...),
	)

	i.mu.Lock()
	i.inflight[evt.RequestID] = inflight{ctx: spanCtx, span: span, collection: collection}
	i.mu.Unlock()
}

func (i *Instrumentation) succeeded(_ context.Context, evt *event.CommandSucceededEvent) {
	i.finish(evt.RequestID, evt.CommandName, evt.Duration, nil)
}

func (i *Instrumentation) failed(_ context.Context, evt *event.CommandFailedEvent) {
	i.finish(evt.RequestID, evt.CommandName, evt.Duration, commandError(evt.Failure))
}

func (i *Instrumentation) finish(requestID int64, command string, duration time.Duration, err error) {
	i.mu.Lock()
	call, ok := i.inflight[requestID]
	delete(i.inflight, requestID)
	i.mu.Unlock()
	if !ok {
		return
	}

	tracing.EndSpan(call.span, err)

	success := err == nil
	if i.metrics != nil {
		i.metrics.RecordMongoDBOperation(call.collection, command, success, duration)
	}
	if i.logger != nil {
		i.logger.DatabaseQuery(call.ctx, call.collection, command, duration, success)
	}
}

type commandError string

func (e commandError) Error() string { return string(e) }
