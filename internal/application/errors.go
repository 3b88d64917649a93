package application

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// validationErrors are domain failures caused by the request itself
var validationErrors = []error{
	domain.ErrOrderAlreadyCompleted,
	domain.ErrDuplicateSale,
	domain.ErrInvalidStatusChange,
	domain.ErrInvalidItemID,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidThreshold,
	domain.ErrItemNameRequired,
	domain.ErrEmptySale,
	domain.ErrSaleIDRequired,
	domain.ErrInvalidPaymentMethod,
	domain.ErrCreditCustomerRequired,
	domain.ErrInvalidDateRange,
	domain.ErrInvalidAmount,
	domain.ErrInvalidCurrency,
	domain.ErrCurrencyMismatch,
	domain.ErrNegativeMoney,
	domain.ErrInvalidMultiplier,
	domain.ErrAmountOverflow,
}

// domainError turns domain failures into client AppErrors. Anything else is
// returned unchanged so the retry policy can still see it as a store failure.
func domainError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	var stock *domain.InsufficientStockError
	if stderrors.As(err, &stock) {
		return errors.ErrInsufficientStock(stock.Name, stock.Available, stock.Requested).
			WithDetail("itemId", stock.ItemID).
			Wrap(err)
	}

	var missing *domain.ItemMissingError
	if stderrors.As(err, &missing) {
		return errors.NewAppError(errors.CodeNotFound, missing.Error(), http.StatusNotFound).
			WithDetail("id", missing.ItemID).
			Wrap(err)
	}

	switch {
	case stderrors.Is(err, domain.ErrItemNotFound):
		return errors.ErrNotFound("inventory item").Wrap(err)
	case stderrors.Is(err, domain.ErrOrderNotFound):
		return errors.ErrNotFound("order").Wrap(err)
	}

	for _, target := range validationErrors {
		if stderrors.Is(err, target) {
			return errors.ErrValidation(err.Error()).Wrap(err)
		}
	}
	return err
}

// storeError classifies what is left once the retry policy has given up
func storeError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.ErrTimeout(operation).Wrap(err)
	}
	return errors.ErrTransientStore(operation).Wrap(err)
}

// outcome labels a ledger result for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.HasCode(err, errors.CodeInsufficientStock):
		return "insufficient_stock"
	case errors.HasCode(err, errors.CodeNotFound):
		return "not_found"
	case errors.HasCode(err, errors.CodeValidationError):
		return "rejected"
	case errors.HasCode(err, errors.CodeTimeout):
		return "timeout"
	default:
		return "store_error"
	}
}
