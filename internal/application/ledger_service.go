package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/tracing"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

const (
	opCompleteOrder = "complete_order"
	opDirectSale    = "direct_sale"
)

// LedgerService reconciles stock with sales. Each operation is one store
// transaction: every decrement, history line, order write and outbox event
// commits together or not at all. There is no application-level retry here;
// conflict handling belongs to the TransactionRunner.
type LedgerService struct {
	runner  domain.TransactionRunner
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewLedgerService creates a new LedgerService. m may be nil.
func NewLedgerService(runner domain.TransactionRunner, m *metrics.Metrics, logger *logging.Logger) *LedgerService {
	return &LedgerService{
		runner:  runner,
		metrics: m,
		logger:  logger.WithComponent("ledger"),
		tracer:  tracing.Tracer(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// staged is what one pass over the requested lines produced
type staged struct {
	lines  []domain.LineItem
	alerts []string
	events []domain.DomainEvent
	units  int
}

// CompleteOrder decrements stock for every line of an open order and marks it completed
func (s *LedgerService) CompleteOrder(ctx context.Context, cmd CompleteOrderCommand) (*SaleResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.CompleteOrder",
		trace.WithAttributes(tracing.LedgerSpanAttributes(opCompleteOrder, cmd.OrderID, 0)...),
	)

	var (
		title string
		st    *staged
	)
	err := s.runner.RunInTransaction(ctx, func(ctx context.Context, tx domain.Tx) error {
		order, err := tx.GetOrder(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := order.CheckCompletable(); err != nil {
			return err
		}

		demand, err := order.Demand()
		if err != nil {
			return err
		}

		now := s.now()
		st, err = stageDemand(ctx, tx, demand, domain.HistorySaleCompleted, order.ID, now)
		if err != nil {
			return err
		}

		if err := tx.CompleteOrder(ctx, order.ID, now); err != nil {
			return err
		}
		if err := order.Complete(now); err != nil {
			return err
		}

		title = order.Title
		return tx.Publish(ctx, append([]domain.DomainEvent{domain.NewSaleCompletedEvent(order)}, st.events...)...)
	})

	if err != nil {
		result := &SaleResult{Message: "Transaction error: " + err.Error(), Alerts: []string{}}
		return result, s.fail(ctx, span, opCompleteOrder, cmd.OrderID, start, err)
	}

	result := &SaleResult{
		OK:      true,
		Message: fmt.Sprintf("Sale '%s' completed successfully.", title),
		Alerts:  st.alerts,
		OrderID: cmd.OrderID,
	}
	s.succeed(ctx, span, opCompleteOrder, "order", cmd.OrderID, start, st)
	return result, nil
}

// ProcessDirectSale sells the requested units at stored prices and records a
// completed order under the caller's sale id
func (s *LedgerService) ProcessDirectSale(ctx context.Context, cmd DirectSaleCommand) (*SaleResult, error) {
	start := time.Now()
	saleID := strings.TrimSpace(cmd.SaleID)
	ctx, span := s.tracer.Start(ctx, "ledger.ProcessDirectSale",
		trace.WithAttributes(tracing.LedgerSpanAttributes(opDirectSale, saleID, len(cmd.Items))...),
	)

	failed := func(err error) (*SaleResult, error) {
		result := &SaleResult{Message: "Error processing sale: " + err.Error(), Alerts: []string{}}
		return result, s.fail(ctx, span, opDirectSale, saleID, start, err)
	}

	if saleID == "" {
		return failed(domain.ErrSaleIDRequired)
	}

	payment, err := domain.Payment{
		Method:       domain.PaymentMethod(strings.ToLower(strings.TrimSpace(cmd.PaymentMethod))),
		CustomerName: cmd.CustomerName,
	}.Normalize()
	if err != nil {
		return failed(err)
	}

	declared := make([]domain.SaleLine, 0, len(cmd.Items))
	for _, l := range cmd.Items {
		declared = append(declared, domain.SaleLine{ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity})
	}
	demand, err := domain.AggregateDemand(declared)
	if err != nil {
		return failed(err)
	}

	var (
		order *domain.Order
		st    *staged
	)
	err = s.runner.RunInTransaction(ctx, func(ctx context.Context, tx domain.Tx) error {
		now := s.now()
		var err error
		st, err = stageDemand(ctx, tx, demand, domain.HistoryDirectSale, saleID, now)
		if err != nil {
			return err
		}

		order, err = domain.NewDirectSaleOrder(saleID, st.lines, payment, now)
		if err != nil {
			return err
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		return tx.Publish(ctx, append([]domain.DomainEvent{domain.NewSaleCompletedEvent(order)}, st.events...)...)
	})
	if err != nil {
		return failed(err)
	}

	result := &SaleResult{
		OK:      true,
		Message: "Sale recorded. Total: " + order.Price.Format(),
		Alerts:  st.alerts,
		OrderID: order.ID,
	}
	s.succeed(ctx, span, opDirectSale, "direct", saleID, start, st)
	return result, nil
}

// stageDemand reads and validates every requested item before staging any
// write, so the first shortfall aborts the transaction with nothing applied
func stageDemand(
	ctx context.Context,
	tx domain.Tx,
	demand []domain.SaleLine,
	historyType domain.HistoryType,
	saleID string,
	now time.Time,
) (*staged, error) {
	items := make([]*domain.InventoryItem, len(demand))
	for i, line := range demand {
		item, err := tx.GetItem(ctx, line.ItemID)
		if err != nil {
			if stderrors.Is(err, domain.ErrItemNotFound) {
				return nil, &domain.ItemMissingError{ItemID: line.ItemID, Name: line.Name}
			}
			return nil, err
		}
		if err := item.Available(line.Quantity); err != nil {
			return nil, err
		}
		items[i] = item
	}

	st := &staged{
		lines:  make([]domain.LineItem, 0, len(demand)),
		alerts: []string{},
	}
	for i, line := range demand {
		item := items[i]
		newQty := item.Quantity - line.Quantity

		if err := tx.SetItemQuantity(ctx, item.ID, newQty, now); err != nil {
			return nil, err
		}
		entry := domain.NewHistoryEntry(item.ID, historyType, -line.Quantity, domain.SaleDetails(saleID), now)
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return nil, err
		}

		st.lines = append(st.lines, domain.NewLineItem(item, line.Quantity))
		st.units += line.Quantity

		if msg, ok := domain.EvaluateLowStock(item.Name, newQty, item.MinStockAlert); ok {
			st.alerts = append(st.alerts, msg)
			st.events = append(st.events, &domain.LowStockAlertEvent{
				ItemID:          item.ID,
				Name:            item.Name,
				CurrentQuantity: newQty,
				MinStockAlert:   item.MinStockAlert,
				Message:         msg,
				SaleID:          saleID,
				AlertedAt:       now,
			})
		}
	}
	return st, nil
}

func (s *LedgerService) succeed(ctx context.Context, span trace.Span, op, channel, saleID string, start time.Time, st *staged) {
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordLedgerTransaction(op, outcome(nil), elapsed)
		s.metrics.RecordUnitsSold(channel, st.units)
		s.metrics.RecordLowStockAlerts(len(st.alerts))
	}
	for _, alert := range st.alerts {
		s.logger.WithContext(ctx).Warn("Low stock alert", "saleId", saleID, "alert", alert)
	}
	s.logger.LedgerOutcome(ctx, op, saleID, true, elapsed, len(st.alerts), nil)
	tracing.EndSpan(span, nil)
}

// fail maps err to an AppError and records the outcome
func (s *LedgerService) fail(ctx context.Context, span trace.Span, op, saleID string, start time.Time, err error) error {
	appErr := storeError(op, domainError(err))
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordLedgerTransaction(op, outcome(appErr), elapsed)
	}
	s.logger.LedgerOutcome(ctx, op, saleID, false, elapsed, 0, err)
	tracing.EndSpan(span, appErr)
	return appErr
}
