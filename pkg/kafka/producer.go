package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/cloudevents"
)

// EventPublisher is implemented by every producer flavour
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error
}

// Producer handles publishing CloudEvents to Kafka topics
type Producer struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	config  *Config
}

// NewProducer creates a new Kafka producer
func NewProducer(config *Config) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		config:  config,
	}
}

func (p *Producer) getWriter(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, exists := p.writers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.config.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              p.config.BatchSize,
		BatchTimeout:           p.config.BatchTimeout,
		WriteTimeout:           p.config.WriteTimeout,
		RequiredAcks:           kafka.RequiredAcks(p.config.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	p.writers[topic] = writer
	return writer
}

// Message converts a CloudEvent into a Kafka message in binary content mode.
// The subject is the key so events about one item or order stay ordered.
func Message(event *cloudevents.LedgerCloudEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := event.BinaryHeaders()
	msg := kafka.Message{
		Key:     []byte(event.Subject),
		Value:   data,
		Headers: make([]kafka.Header, 0, len(headers)),
		Time:    event.Time,
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return msg, nil
}

// PublishEvent publishes a CloudEvent to the specified topic
func (p *Producer) PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error {
	msg, err := Message(event)
	if err != nil {
		return err
	}

	if err := p.getWriter(topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}
	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close writer for topic %s: %w", topic, err)
		}
	}
	return lastErr
}
