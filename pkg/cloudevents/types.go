package cloudevents

import (
	"time"
)

// Event types emitted by the stock ledger
const (
	SaleCompleted      = "rapitienda.sale.completed"
	DirectSaleRecorded = "rapitienda.sale.direct-recorded"
	OrderCreated       = "rapitienda.order.created"
	OrderCancelled     = "rapitienda.order.cancelled"
	ItemSaved          = "rapitienda.inventory.item-saved"
	ItemDeleted        = "rapitienda.inventory.item-deleted"
	LowStockAlert      = "rapitienda.inventory.low-stock-alert"
)

// SourceStockLedger is the CloudEvents source of every ledger event
const SourceStockLedger = "/rapitienda/stock-ledger"

// LedgerCloudEvent is a CloudEvents v1.0 envelope
type LedgerCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	CorrelationID string `json:"rtcorrelationid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
	TraceState    string `json:"tracestate,omitempty"`
}
