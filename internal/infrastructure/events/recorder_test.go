package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/cloudevents"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/contracts/asyncapi"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/kafka"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/outbox"
)

type captureRepo struct {
	outbox.Repository
	saved []*outbox.OutboxEvent
}

func (c *captureRepo) SaveAll(_ context.Context, events []*outbox.OutboxEvent) error {
	c.saved = append(c.saved, events...)
	return nil
}

func TestRoute(t *testing.T) {
	tests := []struct {
		eventType     string
		topic         string
		aggregateType string
	}{
		{cloudevents.SaleCompleted, kafka.Topics.SalesEvents, AggregateOrder},
		{cloudevents.DirectSaleRecorded, kafka.Topics.SalesEvents, AggregateOrder},
		{cloudevents.OrderCreated, kafka.Topics.OrdersEvents, AggregateOrder},
		{cloudevents.OrderCancelled, kafka.Topics.OrdersEvents, AggregateOrder},
		{cloudevents.LowStockAlert, kafka.Topics.AlertsEvents, AggregateItem},
		{cloudevents.ItemSaved, kafka.Topics.InventoryEvents, AggregateItem},
		{cloudevents.ItemDeleted, kafka.Topics.InventoryEvents, AggregateItem},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			topic, aggregateType := Route(tt.eventType)
			assert.Equal(t, tt.topic, topic)
			assert.Equal(t, tt.aggregateType, aggregateType)
		})
	}
}

func TestOutboxRecorder_Record(t *testing.T) {
	repo := &captureRepo{}
	recorder := NewOutboxRecorder(repo)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")

	err := recorder.Record(ctx,
		&domain.SaleCompletedEvent{OrderID: "o1", Total: domain.MustMoney("8.00"), CompletedAt: at},
		&domain.LowStockAlertEvent{ItemID: "A", Name: "Arroz", CurrentQuantity: 2, MinStockAlert: 5, AlertedAt: at},
	)
	require.NoError(t, err)
	require.Len(t, repo.saved, 2)

	sale := repo.saved[0]
	assert.Equal(t, "o1", sale.AggregateID)
	assert.Equal(t, AggregateOrder, sale.AggregateType)
	assert.Equal(t, kafka.Topics.SalesEvents, sale.Topic)
	assert.Equal(t, cloudevents.SaleCompleted, sale.EventType)

	ce, err := sale.ToCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, "corr-1", ce.CorrelationID)
	assert.Equal(t, "o1", ce.Subject)
	assert.True(t, at.Equal(ce.Time))

	data, ok := ce.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "o1", data["orderId"])

	assert.Equal(t, kafka.Topics.AlertsEvents, repo.saved[1].Topic)
}

func TestOutboxRecorder_RecordNothing(t *testing.T) {
	repo := &captureRepo{}
	require.NoError(t, NewOutboxRecorder(repo).Record(context.Background()))
	assert.Empty(t, repo.saved)
}

func TestOutboxRecorder_EventsMatchContract(t *testing.T) {
	validator, err := asyncapi.NewLedgerEventValidator()
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	all := []domain.DomainEvent{
		&domain.SaleCompletedEvent{OrderID: "o1", Title: "Table 2", Total: domain.MustMoney("8.00"), Units: 3,
			PaymentMethod: domain.PaymentCredit, CustomerName: "Marta", CompletedAt: at},
		&domain.SaleCompletedEvent{OrderID: "pos-1", Title: "Direct Sale pos-1", Total: domain.MustMoney("2.50"), Units: 1,
			PaymentMethod: domain.PaymentCash, CustomerName: domain.DefaultCustomerName, IsDirectSale: true, CompletedAt: at},
		&domain.OrderCreatedEvent{OrderID: "o2", Title: "Table 3", Total: domain.MustMoney("12.00"), Lines: 2, CreatedAt: at},
		&domain.OrderCancelledEvent{OrderID: "o2", CancelledAt: at},
		&domain.ItemSavedEvent{ItemID: "A", Name: "Arroz", Quantity: 0, IsNew: true, SavedAt: at},
		&domain.ItemDeletedEvent{ItemID: "A", HistoryPurged: 4, DeletedAt: at},
		&domain.LowStockAlertEvent{ItemID: "A", Name: "Arroz", CurrentQuantity: 2, MinStockAlert: 5,
			Message: "'Arroz' reached its minimum stock threshold (2/5).", SaleID: "o1", AlertedAt: at},
	}

	rows, err := NewOutboxRecorder(&captureRepo{}).Build(context.Background(), all...)
	require.NoError(t, err)
	require.Len(t, rows, len(all))

	covered := make(map[string]bool)
	for _, row := range rows {
		t.Run(row.EventType, func(t *testing.T) {
			assert.NoError(t, validator.ValidateEventJSON(row.Payload))

			topic, ok := validator.Channel(row.EventType)
			require.True(t, ok, "event type missing from the contract")
			assert.Equal(t, topic, row.Topic)
		})
		covered[row.EventType] = true
	}

	// every documented event type is produced by some domain event
	for _, eventType := range validator.SupportedEventTypes() {
		assert.True(t, covered[eventType], eventType)
	}
}

func TestOutboxRecorder_ContractRejectsBrokenPayload(t *testing.T) {
	validator, err := asyncapi.NewLedgerEventValidator()
	require.NoError(t, err)

	rows, err := NewOutboxRecorder(&captureRepo{}).Build(context.Background(),
		&domain.OrderCreatedEvent{OrderID: "", Total: domain.MustMoney("1.00"), Lines: 0, CreatedAt: time.Now()})
	require.NoError(t, err)

	assert.ErrorContains(t, validator.ValidateEventJSON(rows[0].Payload), "validation failed")
}
