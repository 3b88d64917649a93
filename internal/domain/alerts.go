package domain

import "fmt"

// EvaluateLowStock returns the alert text for an item whose quantity is now
// newQty. It fires only when the threshold is enabled and stock remains.
func EvaluateLowStock(name string, newQty, minStockAlert int) (string, bool) {
	if minStockAlert <= 0 || newQty <= 0 || newQty > minStockAlert {
		return "", false
	}
	return fmt.Sprintf("'%s' reached its minimum stock threshold (%d/%d).", name, newQty, minStockAlert), true
}
