package cloudevents

import "time"

// Extension attribute names
const (
	ExtCorrelationID = "rtcorrelationid"
	ExtTraceParent   = "traceparent"
	ExtTraceState    = "tracestate"
)

// HeaderCorrelationID is the HTTP header that carries the correlation id
const HeaderCorrelationID = "X-Correlation-ID"

// BinaryHeaders returns the event attributes in binary content mode (ce- prefixed)
func (e *LedgerCloudEvent) BinaryHeaders() map[string]string {
	headers := map[string]string{
		"ce-specversion": e.SpecVersion,
		"ce-type":        e.Type,
		"ce-source":      e.Source,
		"ce-id":          e.ID,
		"ce-time":        e.Time.Format(time.RFC3339),
		"content-type":   e.DataContentType,
	}
	if e.Subject != "" {
		headers["ce-subject"] = e.Subject
	}
	if e.CorrelationID != "" {
		headers["ce-"+ExtCorrelationID] = e.CorrelationID
	}
	if e.TraceParent != "" {
		headers["ce-"+ExtTraceParent] = e.TraceParent
	}
	if e.TraceState != "" {
		headers["ce-"+ExtTraceState] = e.TraceState
	}
	return headers
}
