// internal/domain/checkout/errors.go
package checkout

import "fmt"

// ValidationError reports a form-level problem: a missing contact
// field, a pickup date in the past, an empty cart. Always recoverable;
// the UI shows it inline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// OutOfStockError blocks submission: live stock for the named product
// is zero.
type OutOfStockError struct {
	ProductID   uint
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%q is out of stock", e.ProductName)
}

// InsufficientStockError blocks submission: the requested quantity
// exceeds live stock for the named product.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
