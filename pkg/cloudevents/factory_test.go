package cloudevents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
)

func TestEventFactory_CreateEvent(t *testing.T) {
	f := NewEventFactory(SourceStockLedger)
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-42")

	event := f.CreateEvent(ctx, LowStockAlert, "inventory/7501", map[string]int{"quantity": 2})

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, LowStockAlert, event.Type)
	assert.Equal(t, SourceStockLedger, event.Source)
	assert.Equal(t, "inventory/7501", event.Subject)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "corr-42", event.CorrelationID)
	assert.Empty(t, event.TraceParent)
}

func TestLedgerCloudEvent_BinaryHeaders(t *testing.T) {
	f := NewEventFactory(SourceStockLedger)
	event := f.CreateEvent(context.Background(), SaleCompleted, "order/abc", nil)

	headers := event.BinaryHeaders()

	assert.Equal(t, SaleCompleted, headers["ce-type"])
	assert.Equal(t, "order/abc", headers["ce-subject"])
	assert.Equal(t, "application/json", headers["content-type"])
	_, hasCorrelation := headers["ce-rtcorrelationid"]
	assert.False(t, hasCorrelation)
}
