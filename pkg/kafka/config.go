package kafka

import (
	"time"
)

// Config holds Kafka producer configuration
type Config struct {
	Brokers  []string `yaml:"brokers"`
	ClientID string   `yaml:"clientId"`

	BatchSize    int           `yaml:"batchSize"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
	RequiredAcks int           `yaml:"requiredAcks"` // 0: no ack, 1: leader ack, -1: all replicas ack
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "stock-ledger",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 10 * time.Second,
	}
}

// Topics contains the ledger topic names
var Topics = struct {
	SalesEvents     string
	OrdersEvents    string
	InventoryEvents string
	AlertsEvents    string
}{
	SalesEvents:     "rapitienda.sales.events",
	OrdersEvents:    "rapitienda.orders.events",
	InventoryEvents: "rapitienda.inventory.events",
	AlertsEvents:    "rapitienda.alerts.events",
}
