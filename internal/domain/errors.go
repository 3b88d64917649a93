package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound           = errors.New("inventory item not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrOrderAlreadyCompleted  = errors.New("order already completed")
	ErrDuplicateSale          = errors.New("sale id already exists")
	ErrInvalidStatusChange    = errors.New("invalid order status transition")
	ErrInvalidItemID          = errors.New("invalid item id")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidThreshold       = errors.New("invalid minimum stock threshold")
	ErrItemNameRequired       = errors.New("item name is required")
	ErrEmptySale              = errors.New("sale has no line items")
	ErrSaleIDRequired         = errors.New("sale id is required")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrCreditCustomerRequired = errors.New("credit sales require a customer name")
	ErrInvalidDateRange       = errors.New("invalid date range")
)

// InsufficientStockError names the first line item that cannot be fulfilled
type InsufficientStockError struct {
	ItemID    string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for '%s': available %d", e.Name, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientStock) match
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ItemMissingError reports a line item whose inventory document is gone
type ItemMissingError struct {
	ItemID string
	Name   string
}

func (e *ItemMissingError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("product '%s' no longer exists in inventory", e.Name)
	}
	return fmt.Sprintf("product '%s' not found in inventory", e.ItemID)
}

func (e *ItemMissingError) Is(target error) bool {
	return target == ErrItemNotFound
}
