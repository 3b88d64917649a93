package application

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// OrderService handles basket orders that have not reached the ledger yet
type OrderService struct {
	orders    domain.OrderRepository
	inventory domain.InventoryRepository
	recorder  domain.EventRecorder
	retrier   *resilience.Retrier
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

// NewOrderService creates a new OrderService. recorder may be nil.
func NewOrderService(
	orders domain.OrderRepository,
	inventory domain.InventoryRepository,
	recorder domain.EventRecorder,
	retrier *resilience.Retrier,
	logger *logging.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		inventory: inventory,
		recorder:  recorder,
		retrier:   retrier,
		logger:    logger.WithComponent("order-service"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

// Create prices every line from the store and inserts a pending order
func (s *OrderService) Create(ctx context.Context, cmd CreateOrderCommand) (*OrderDTO, error) {
	payment, err := domain.Payment{
		Method:       domain.PaymentMethod(strings.ToLower(strings.TrimSpace(cmd.PaymentMethod))),
		CustomerName: cmd.CustomerName,
	}.Normalize()
	if err != nil {
		return nil, domainError(err)
	}

	declared := make([]domain.SaleLine, 0, len(cmd.Items))
	for _, l := range cmd.Items {
		declared = append(declared, domain.SaleLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	demand, err := domain.AggregateDemand(declared)
	if err != nil {
		return nil, domainError(err)
	}

	lines := make([]domain.LineItem, 0, len(demand))
	for _, d := range demand {
		item, err := query(ctx, s.retrier, resilience.Idempotent("find_item"), func(ctx context.Context) (*domain.InventoryItem, error) {
			return s.inventory.FindByID(ctx, d.ItemID)
		})
		if err != nil {
			if errors.HasCode(err, errors.CodeNotFound) {
				return nil, domainError(&domain.ItemMissingError{ItemID: d.ItemID})
			}
			return nil, err
		}
		lines = append(lines, domain.NewLineItem(item, d.Quantity))
	}

	total, err := domain.SumSubtotals(lines)
	if err != nil {
		return nil, domainError(err)
	}

	now := s.now()
	order := &domain.Order{
		ID:            s.newID(),
		Title:         strings.TrimSpace(cmd.Title),
		Price:         total,
		LineItems:     lines,
		Status:        domain.OrderStatusPending,
		Timestamp:     now,
		PaymentMethod: payment.Method,
		CustomerName:  payment.CustomerName,
	}
	if order.Title == "" {
		order.Title = "Order " + order.ID[:8]
	}

	attempt := 0
	err = execute(ctx, s.retrier, resilience.Keyed("insert_order", order.ID), func(ctx context.Context) error {
		attempt++
		err := s.orders.Insert(ctx, order)
		if attempt > 1 && stderrors.Is(err, domain.ErrDuplicateSale) {
			// an earlier attempt landed before its reply was lost
			return nil
		}
		return err
	})
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to create order", "orderId", order.ID, "error", err)
		return nil, err
	}

	recordEvents(ctx, s.recorder, s.logger, &domain.OrderCreatedEvent{
		OrderID:   order.ID,
		Title:     order.Title,
		Total:     order.Price,
		Lines:     len(order.LineItems),
		CreatedAt: now,
	})

	s.logger.WithContext(ctx).Info("Created order", "orderId", order.ID, "lines", len(lines), "total", total.String())
	return orderDTO(order)
}

// GetOrders returns orders newest first. An empty status returns every order.
func (s *OrderService) GetOrders(ctx context.Context, status string) ([]OrderDTO, error) {
	var filter *domain.OrderStatus
	if status != "" {
		st := domain.OrderStatus(strings.ToLower(status))
		if !st.IsValid() {
			return nil, errors.ErrValidation("unknown order status").WithDetail("status", status)
		}
		filter = &st
	}

	orders, err := query(ctx, s.retrier, resilience.Idempotent("find_orders"), func(ctx context.Context) ([]*domain.Order, error) {
		return s.orders.FindByStatus(ctx, filter)
	})
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to list orders", "status", status, "error", err)
		return nil, err
	}
	return orderDTOs(orders)
}

// GetOrdersInRange returns completed orders with completedAt in [start, end)
func (s *OrderService) GetOrdersInRange(ctx context.Context, q OrdersInRangeQuery) ([]OrderDTO, error) {
	orders, err := completedInRange(ctx, s.orders, s.retrier, q)
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to list orders in range", "start", q.Start, "end", q.End, "error", err)
		return nil, err
	}
	return orderDTOs(orders)
}

// GetOrder retrieves one order
func (s *OrderService) GetOrder(ctx context.Context, id string) (*OrderDTO, error) {
	order, err := query(ctx, s.retrier, resilience.Idempotent("find_order"), func(ctx context.Context) (*domain.Order, error) {
		return s.orders.FindByID(ctx, id)
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.ErrNotFoundWithID("order", id).Wrap(domain.ErrOrderNotFound)
		}
		return nil, err
	}
	return orderDTO(order)
}

// CountOrders returns the number of stored orders
func (s *OrderService) CountOrders(ctx context.Context) (int64, error) {
	return query(ctx, s.retrier, resilience.Idempotent("count_orders"), func(ctx context.Context) (int64, error) {
		return s.orders.Count(ctx)
	})
}

// MarkProcessing moves a pending order to processing. It is a compare-and-set
// without a key, so it runs exactly once.
func (s *OrderService) MarkProcessing(ctx context.Context, id string) (*OrderDTO, error) {
	err := execute(ctx, s.retrier, resilience.Operation{Name: "mark_processing"}, func(ctx context.Context) error {
		return s.orders.UpdateStatus(ctx, id, domain.OrderStatusPending, domain.OrderStatusProcessing)
	})
	if err != nil {
		s.logger.WithContext(ctx).Warn("Failed to mark order as processing", "orderId", id, "error", err)
		return nil, err
	}

	s.logger.WithContext(ctx).Info("Order moved to processing", "orderId", id)
	return s.GetOrder(ctx, id)
}

// Cancel deletes an order that has not been completed
func (s *OrderService) Cancel(ctx context.Context, id string) error {
	attempt := 0
	err := execute(ctx, s.retrier, resilience.Keyed("cancel_order", id), func(ctx context.Context) error {
		attempt++
		err := s.orders.DeleteOpen(ctx, id)
		if attempt > 1 && stderrors.Is(err, domain.ErrOrderNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		s.logger.WithContext(ctx).Warn("Failed to cancel order", "orderId", id, "error", err)
		return err
	}

	recordEvents(ctx, s.recorder, s.logger, &domain.OrderCancelledEvent{
		OrderID:     id,
		CancelledAt: s.now(),
	})

	s.logger.Audit(ctx, "cancel", "order", id, nil)
	return nil
}

func completedInRange(ctx context.Context, orders domain.OrderRepository, r *resilience.Retrier, q OrdersInRangeQuery) ([]*domain.Order, error) {
	if q.Start.IsZero() || q.End.IsZero() || !q.End.After(q.Start) {
		return nil, domainError(domain.ErrInvalidDateRange)
	}
	return query(ctx, r, resilience.Idempotent("find_orders_in_range"), func(ctx context.Context) ([]*domain.Order, error) {
		return orders.FindCompletedInRange(ctx, q.Start, q.End)
	})
}

func orderDTO(order *domain.Order) (*OrderDTO, error) {
	dto, err := ToOrderDTO(order)
	if err != nil {
		return nil, errors.ErrInternal("stored order cannot be priced").Wrap(err)
	}
	return dto, nil
}

func orderDTOs(orders []*domain.Order) ([]OrderDTO, error) {
	dtos, err := ToOrderDTOs(orders)
	if err != nil {
		return nil, errors.ErrInternal("stored order cannot be priced").Wrap(err)
	}
	return dtos, nil
}
