package application

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// InventoryService handles item maintenance outside ledger transactions.
// Every store call goes through the retry policy.
type InventoryService struct {
	repo     domain.InventoryRepository
	recorder domain.EventRecorder
	retrier  *resilience.Retrier
	logger   *logging.Logger
	now      func() time.Time
}

// NewInventoryService creates a new InventoryService. recorder may be nil.
func NewInventoryService(
	repo domain.InventoryRepository,
	recorder domain.EventRecorder,
	retrier *resilience.Retrier,
	logger *logging.Logger,
) *InventoryService {
	return &InventoryService{
		repo:     repo,
		recorder: recorder,
		retrier:  retrier,
		logger:   logger.WithComponent("inventory-service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SaveItem merges the supplied fields into the item and appends one history
// entry recording the resulting quantity.
func (s *InventoryService) SaveItem(ctx context.Context, cmd SaveItemCommand) (*InventoryItemDTO, error) {
	if err := domain.ValidateItemID(cmd.ItemID); err != nil {
		return nil, domainError(err)
	}

	fields := domain.ItemFields{
		Name:          cmd.Name,
		Quantity:      cmd.Quantity,
		PurchasePrice: cmd.PurchasePrice,
		SalePrice:     cmd.SalePrice,
		MinStockAlert: cmd.MinStockAlert,
	}
	if err := fields.Validate(cmd.IsNew); err != nil {
		return nil, domainError(err)
	}

	item, err := query(ctx, s.retrier, resilience.Keyed("save_item", cmd.ItemID), func(ctx context.Context) (*domain.InventoryItem, error) {
		return s.repo.Upsert(ctx, cmd.ItemID, fields)
	})
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to save item", "itemId", cmd.ItemID, "error", err)
		return nil, err
	}

	entry := domain.SaveHistoryEntry(item, cmd.IsNew, cmd.Details, s.now())
	err = execute(ctx, s.retrier, resilience.Keyed("append_history", entry.ID), func(ctx context.Context) error {
		return s.repo.AppendHistory(ctx, entry)
	})
	if err != nil {
		// the item write already landed; only the audit line is missing
		s.logger.WithContext(ctx).Error("Item saved but history append failed",
			"itemId", cmd.ItemID,
			"historyId", entry.ID,
			"error", err,
		)
		return nil, err
	}

	s.record(ctx, &domain.ItemSavedEvent{
		ItemID:   item.ID,
		Name:     item.Name,
		Quantity: item.Quantity,
		IsNew:    cmd.IsNew,
		SavedAt:  entry.Timestamp,
	})

	s.logger.Audit(ctx, "save", "inventory_item", item.ID, map[string]any{
		"isNew":       cmd.IsNew,
		"quantity":    item.Quantity,
		"historyType": string(entry.Type),
	})
	return ToInventoryItemDTO(item), nil
}

// DeleteItem purges the item's history in fixed-size pages, then the item.
// The loop stops on the first page shorter than the page size.
func (s *InventoryService) DeleteItem(ctx context.Context, cmd DeleteItemCommand) (*DeleteItemResultDTO, error) {
	if err := domain.ValidateItemID(cmd.ItemID); err != nil {
		return nil, domainError(err)
	}

	result := &DeleteItemResultDTO{ItemID: cmd.ItemID}
	for {
		n, err := query(ctx, s.retrier, resilience.Idempotent("delete_history_page"), func(ctx context.Context) (int, error) {
			return s.repo.DeleteHistoryPage(ctx, cmd.ItemID, domain.HistoryPurgeBatchSize)
		})
		if err != nil {
			s.logger.WithContext(ctx).Error("Failed to purge item history",
				"itemId", cmd.ItemID,
				"purged", result.HistoryPurged,
				"error", err,
			)
			return nil, err
		}
		result.Batches++
		result.HistoryPurged += n
		if n < domain.HistoryPurgeBatchSize {
			break
		}
	}

	err := execute(ctx, s.retrier, resilience.Idempotent("delete_item"), func(ctx context.Context) error {
		return s.repo.Delete(ctx, cmd.ItemID)
	})
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to delete item", "itemId", cmd.ItemID, "error", err)
		return nil, err
	}

	s.record(ctx, &domain.ItemDeletedEvent{
		ItemID:        cmd.ItemID,
		HistoryPurged: result.HistoryPurged,
		DeletedAt:     s.now(),
	})

	s.logger.Audit(ctx, "delete", "inventory_item", cmd.ItemID, map[string]any{
		"historyPurged": result.HistoryPurged,
		"batches":       result.Batches,
	})
	return result, nil
}

// GetAllItems returns every item ordered by case-insensitive name
func (s *InventoryService) GetAllItems(ctx context.Context) ([]InventoryItemDTO, error) {
	items, err := s.findAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToInventoryItemDTOs(items), nil
}

// GetItem retrieves one item
func (s *InventoryService) GetItem(ctx context.Context, id string) (*InventoryItemDTO, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToInventoryItemDTO(item), nil
}

// GetItemHistory returns the item's audit trail, newest first
func (s *InventoryService) GetItemHistory(ctx context.Context, id string) ([]HistoryEntryDTO, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	entries, err := query(ctx, s.retrier, resilience.Idempotent("find_history"), func(ctx context.Context) ([]*domain.HistoryEntry, error) {
		return s.repo.FindHistory(ctx, id)
	})
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to get item history", "itemId", id, "error", err)
		return nil, err
	}
	return ToHistoryEntryDTOs(entries), nil
}

// GetLowStockItems lists items inside their alert band
func (s *InventoryService) GetLowStockItems(ctx context.Context) ([]InventoryItemDTO, error) {
	items, err := s.findAll(ctx)
	if err != nil {
		return nil, err
	}

	low := make([]*domain.InventoryItem, 0)
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return ToInventoryItemDTOs(low), nil
}

// GetInventoryValue sums quantity times purchase price over all items
func (s *InventoryService) GetInventoryValue(ctx context.Context) (*InventoryValueDTO, error) {
	items, err := s.findAll(ctx)
	if err != nil {
		return nil, err
	}

	value := &InventoryValueDTO{Value: domain.ZeroMoney(domain.DefaultCurrency)}
	for _, item := range items {
		stock, err := item.StockValue()
		if err != nil {
			return nil, errors.ErrInternal("inventory value out of range").WithDetail("itemId", item.ID).Wrap(err)
		}
		total, err := value.Value.Add(stock)
		if err != nil {
			return nil, errors.ErrInternal("inventory is valued in more than one currency").Wrap(err)
		}
		value.Value = total
		value.Items++
		value.Units += item.Quantity
	}
	return value, nil
}

func (s *InventoryService) find(ctx context.Context, id string) (*domain.InventoryItem, error) {
	if err := domain.ValidateItemID(id); err != nil {
		return nil, domainError(err)
	}

	item, err := query(ctx, s.retrier, resilience.Idempotent("find_item"), func(ctx context.Context) (*domain.InventoryItem, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.ErrNotFoundWithID("inventory item", id).Wrap(domain.ErrItemNotFound)
		}
		s.logger.WithContext(ctx).Error("Failed to get item", "itemId", id, "error", err)
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) findAll(ctx context.Context) ([]*domain.InventoryItem, error) {
	items, err := query(ctx, s.retrier, resilience.Idempotent("find_all_items"), func(ctx context.Context) ([]*domain.InventoryItem, error) {
		return s.repo.FindAll(ctx)
	})
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to list items", "error", err)
		return nil, err
	}
	return items, nil
}

func (s *InventoryService) record(ctx context.Context, events ...domain.DomainEvent) {
	recordEvents(ctx, s.recorder, s.logger, events...)
}

// recordEvents hands events to the outbox after a non-transactional write.
// Losing one is logged, never surfaced to the caller.
func recordEvents(ctx context.Context, recorder domain.EventRecorder, logger *logging.Logger, events ...domain.DomainEvent) {
	if recorder == nil {
		return
	}
	if err := recorder.Record(ctx, events...); err != nil && !stderrors.Is(err, context.Canceled) {
		logger.WithContext(ctx).Warn("Failed to record events", "error", err)
	}
}
