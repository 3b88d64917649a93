package application

import (
	"fmt"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// ToInventoryItemDTO converts a domain item to a DTO
func ToInventoryItemDTO(item *domain.InventoryItem) *InventoryItemDTO {
	if item == nil {
		return nil
	}
	return &InventoryItemDTO{
		ID:            item.ID,
		Name:          item.Name,
		Quantity:      item.Quantity,
		PurchasePrice: item.PurchasePrice,
		SalePrice:     item.SalePrice,
		MinStockAlert: item.MinStockAlert,
		LowStock:      item.IsLowStock(),
		UpdatedAt:     item.UpdatedAt,
	}
}

// ToInventoryItemDTOs converts a slice of items, never returning nil
func ToInventoryItemDTOs(items []*domain.InventoryItem) []InventoryItemDTO {
	dtos := make([]InventoryItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, *ToInventoryItemDTO(item))
	}
	return dtos
}

// ToHistoryEntryDTOs converts history entries, preserving their order
func ToHistoryEntryDTOs(entries []*domain.HistoryEntry) []HistoryEntryDTO {
	dtos := make([]HistoryEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, HistoryEntryDTO{
			ID:             e.ID,
			ItemID:         e.ItemID,
			Timestamp:      e.Timestamp,
			Type:           string(e.Type),
			QuantityChange: e.QuantityChange,
			Details:        e.Details,
		})
	}
	return dtos
}

// ToOrderDTO converts a domain order to a DTO
func ToOrderDTO(order *domain.Order) (*OrderDTO, error) {
	if order == nil {
		return nil, nil
	}

	lines := make([]LineItemDTO, 0, len(order.LineItems))
	for _, l := range order.LineItems {
		subtotal, err := l.Subtotal()
		if err != nil {
			return nil, fmt.Errorf("order %s line %s: %w", order.ID, l.ItemID, err)
		}
		lines = append(lines, LineItemDTO{
			ItemID:        l.ItemID,
			Name:          l.Name,
			Quantity:      l.Quantity,
			SalePrice:     l.SalePrice,
			PurchasePrice: l.PurchasePrice,
			Subtotal:      subtotal,
		})
	}

	return &OrderDTO{
		ID:            order.ID,
		Title:         order.Title,
		Price:         order.Price,
		LineItems:     lines,
		Status:        string(order.Status),
		Timestamp:     order.Timestamp,
		CompletedAt:   order.CompletedAt,
		PaymentMethod: string(order.PaymentMethod),
		CustomerName:  order.CustomerName,
		IsDirectSale:  order.IsDirectSale,
	}, nil
}

// ToOrderDTOs converts a slice of orders, never returning nil
func ToOrderDTOs(orders []*domain.Order) ([]OrderDTO, error) {
	dtos := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		dto, err := ToOrderDTO(o)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	return dtos, nil
}
