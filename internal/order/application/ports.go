package application

import (
	"context"
	"time"

	invdomain "github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

type OrderRepository interface {
	// Get returns a non-deleted order with its items, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	Insert(ctx context.Context, o domain.Order) error
	// UpdateDetails writes the scalar fields of o if the order is still in
	// expected; otherwise it returns domain.ErrStaleStatus.
	UpdateDetails(ctx context.Context, o domain.Order, expected domain.OrderStatus) error
	ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	UpdateItems(ctx context.Context, items []domain.OrderItem) error
	// ChangeStatus moves the order from change.From to change.To only if it is
	// still in change.From; otherwise it returns domain.ErrStaleStatus.
	ChangeStatus(ctx context.Context, change StatusChange) error
	SoftDelete(ctx context.Context, id string, expected domain.OrderStatus, at time.Time) error
}

type StatusChange struct {
	OrderID     string
	From        domain.OrderStatus
	To          domain.OrderStatus
	ManagerID   *string
	WarehouseID *string
	At          time.Time
}

type ListFilter struct {
	SalespersonID string
	Status        domain.OrderStatus
}

// ProductCatalog resolves products among the non-deleted ones.
type ProductCatalog interface {
	FindProducts(ctx context.Context, ids []string) (map[string]invdomain.Product, error)
}

// StockLedger consumes stock. DecrementStock must be a single conditional
// update that fails with invdomain.ErrInsufficientStock instead of going negative.
type StockLedger interface {
	DecrementStock(ctx context.Context, productID string, amount int) error
}

type HistoryRecorder interface {
	Record(ctx context.Context, h domain.StatusHistory) error
	List(ctx context.Context, orderID string) ([]domain.StatusHistory, error)
}

// EventOutbox stores integration events next to the state change that caused them.
type EventOutbox interface {
	Enqueue(ctx context.Context, aggregateID, eventType string, payload any) error
}

type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
