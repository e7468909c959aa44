package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrPermissionDenied  = errors.New("order: permission denied")
	ErrIllegalTransition = errors.New("order: illegal transition")
	ErrInsufficientStock = errors.New("order: insufficient stock")
	ErrInvalidReference  = errors.New("order: invalid product reference")
	ErrPartialFailure    = errors.New("order: partial failure")
	ErrInvalidInput      = errors.New("order: invalid input")

	// ErrStaleStatus is returned by repositories when a conditional status
	// update matched no row because the order moved on concurrently.
	ErrStaleStatus = errors.New("order: status changed concurrently")
)

type IllegalTransitionError struct {
	From   OrderStatus
	To     OrderStatus
	Action Action
}

func (e *IllegalTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("order: cannot %s an order in status %q", e.Action, e.From)
	}
	return fmt.Sprintf("order: illegal transition %q -> %q (%s)", e.From, e.To, e.Action)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

type StockIssue struct {
	ProductID string `json:"product_id"`
	Product   string `json:"product"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type InsufficientStockError struct {
	Issues []StockIssue
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", issue.Product, issue.Requested, issue.Available))
	}
	return "order: insufficient stock: " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type InvalidReferenceError struct {
	ProductID string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("order: product %q does not exist", e.ProductID)
}

func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }

// PartialFailureError reports a status change that was applied without its
// audit record. The status is not reverted.
type PartialFailureError struct {
	OrderID string
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("order %s: status updated but history not recorded: %v", e.OrderID, e.Err)
}

func (e *PartialFailureError) Unwrap() []error { return []error{ErrPartialFailure, e.Err} }

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
