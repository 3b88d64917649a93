package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/cloudevents"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"
)

func TestMessage_BinaryContentMode(t *testing.T) {
	event := cloudevents.NewEventFactory(cloudevents.SourceStockLedger).
		CreateEvent(context.Background(), cloudevents.SaleCompleted, "order/o-1", map[string]string{"orderId": "o-1"})

	msg, err := Message(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("order/o-1"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, cloudevents.SaleCompleted, headers["ce-type"])
	assert.Equal(t, event.ID, headers["ce-id"])

	var decoded cloudevents.LedgerCloudEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error {
	f.calls++
	return errors.New("broker down")
}

func TestCircuitBreakerProducer_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingPublisher{}
	p := NewCircuitBreakerProducer(NewInstrumentedProducer(next, metrics.New(metrics.DefaultConfig("test")), nil), nil, nil)
	event := cloudevents.NewEventFactory(cloudevents.SourceStockLedger).
		CreateEvent(context.Background(), cloudevents.LowStockAlert, "inventory/x", nil)

	for i := 0; i < int(resilience.DefaultFailureThreshold); i++ {
		assert.Error(t, p.PublishEvent(context.Background(), Topics.AlertsEvents, event))
	}

	err := p.PublishEvent(context.Background(), Topics.AlertsEvents, event)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int(resilience.DefaultFailureThreshold), next.calls)
}
