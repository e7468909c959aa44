package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

// Deps bundles the collaborators of the order service. Outbox and UnitOfWork
// are optional. Without a UnitOfWork writes are not atomic and a failed
// history write after a status change is reported as a PartialFailureError.
type Deps struct {
	Orders      OrderRepository
	Products    ProductCatalog
	Stock       StockLedger
	History     HistoryRecorder
	Outbox      EventOutbox
	UnitOfWork  UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
}

type Service struct {
	orders    OrderRepository
	products  ProductCatalog
	stock     StockLedger
	history   HistoryRecorder
	outbox    EventOutbox
	uow       UnitOfWork
	atomic    bool
	validator *ItemValidator
	clock     func() time.Time
	newID     func() string
}

func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Orders == nil:
		return nil, errors.New("order service: order repository is required")
	case deps.Products == nil:
		return nil, errors.New("order service: product catalog is required")
	case deps.Stock == nil:
		return nil, errors.New("order service: stock ledger is required")
	case deps.History == nil:
		return nil, errors.New("order service: history recorder is required")
	}

	s := &Service{
		orders:   deps.Orders,
		products: deps.Products,
		stock:    deps.Stock,
		history:  deps.History,
		outbox:   deps.Outbox,
		uow:      deps.UnitOfWork,
		atomic:   deps.UnitOfWork != nil,
		clock:    deps.Clock,
		newID:    deps.IDGenerator,
	}
	if s.uow == nil {
		s.uow = noopUnitOfWork{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.validator = &ItemValidator{products: deps.Products, newID: s.newID}
	return s, nil
}

type CreateOrderCommand struct {
	Actor   domain.Actor
	Details domain.Details
	Items   []domain.ItemRequest
}

// Create stores a new draft order owned by the calling salesperson. Items are
// validated for product existence only; oversold drafts are allowed.
func (s *Service) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	if cmd.Actor.Role != domain.RoleSalesperson {
		return domain.Order{}, domain.ErrPermissionDenied
	}
	if err := domain.ValidateDetails(cmd.Details); err != nil {
		return domain.Order{}, err
	}
	if err := domain.ValidateItemRequests(cmd.Items); err != nil {
		return domain.Order{}, err
	}

	items, _, err := s.validator.Validate(ctx, cmd.Items)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.NewOrder(s.newID(), cmd.Actor.ID, cmd.Details, items, s.now())
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Insert(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return s.enqueue(ctx, order.ID, domain.EventOrderCreated, domain.OrderCreated{
			OrderID:       order.ID,
			SalespersonID: order.SalespersonID,
			CustomerName:  order.CustomerName,
			Total:         order.Total().StringFixed(2),
			ItemCount:     len(order.Items),
		})
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !domain.CanView(actor, order) {
		return domain.Order{}, domain.ErrPermissionDenied
	}
	return order, nil
}

// List returns the orders visible to actor, optionally narrowed by status.
func (s *Service) List(ctx context.Context, actor domain.Actor, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	filter := ListFilter{Status: status}
	switch actor.Role {
	case domain.RoleSalesperson:
		filter.SalespersonID = actor.ID
	case domain.RoleManager, domain.RoleWarehouse:
	default:
		return nil, domain.ErrPermissionDenied
	}
	return s.orders.List(ctx, filter)
}

// History returns the status audit trail of a visible order, oldest first.
func (s *Service) History(ctx context.Context, actor domain.Actor, orderID string) ([]domain.StatusHistory, error) {
	if _, err := s.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.history.List(ctx, orderID)
}

// OrderPatch carries the fields to replace. Nil fields are left untouched; a
// nil Items keeps the current lines, a non-nil Items replaces all of them.
// An empty ShippingAddress clears it.
type OrderPatch struct {
	CustomerName    *string
	ContactPerson   *string
	Email           *string
	ShippingAddress *string
	DeliveryDate    *time.Time
	Notes           *string
	Items           *[]domain.ItemRequest
}

type UpdateOrderCommand struct {
	Actor   domain.Actor
	OrderID string
	Patch   OrderPatch
}

func (s *Service) Update(ctx context.Context, cmd UpdateOrderCommand) (domain.Order, error) {
	current, err := s.load(ctx, cmd.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := domain.CheckEdit(cmd.Actor, current); err != nil {
		return domain.Order{}, err
	}

	updated := applyPatch(current, cmd.Patch)
	if err := domain.ValidateDetails(detailsOf(updated)); err != nil {
		return domain.Order{}, err
	}

	var items []domain.OrderItem
	if cmd.Patch.Items != nil {
		if err := domain.ValidateItemRequests(*cmd.Patch.Items); err != nil {
			return domain.Order{}, err
		}
		items, _, err = s.validator.Validate(ctx, *cmd.Patch.Items)
		if err != nil {
			return domain.Order{}, err
		}
		for i := range items {
			items[i].OrderID = current.ID
		}
	}
	updated.UpdatedAt = s.now()

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orders.UpdateDetails(ctx, updated, current.Status); err != nil {
			if errors.Is(err, domain.ErrStaleStatus) {
				return s.staleError(ctx, current.ID, "", "edit")
			}
			return fmt.Errorf("update order: %w", err)
		}
		if cmd.Patch.Items == nil {
			return nil
		}
		if err := s.orders.ReplaceItems(ctx, current.ID, items); err != nil {
			return fmt.Errorf("replace items: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	if cmd.Patch.Items != nil {
		updated.Items = items
	}
	return updated, nil
}

// Delete soft-deletes an order.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, orderID string) error {
	current, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if err := domain.CheckDelete(actor, current); err != nil {
		return err
	}
	return s.uow.RunInTx(ctx, func(ctx context.Context) error {
		err := s.orders.SoftDelete(ctx, current.ID, current.Status, s.now())
		if errors.Is(err, domain.ErrStaleStatus) {
			return s.staleError(ctx, current.ID, "", "delete")
		}
		return err
	})
}

func (s *Service) load(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, domain.ErrNotFound
	}
	return s.orders.Get(ctx, orderID)
}

// staleError explains a conditional write that matched no row by re-reading
// the order's current state.
func (s *Service) staleError(ctx context.Context, orderID string, to domain.OrderStatus, action domain.Action) error {
	current, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	return &domain.IllegalTransitionError{From: current.Status, To: to, Action: action}
}

func (s *Service) enqueue(ctx context.Context, orderID, eventType string, payload any) error {
	if s.outbox == nil {
		return nil
	}
	if err := s.outbox.Enqueue(ctx, orderID, eventType, payload); err != nil {
		return fmt.Errorf("enqueue %s: %w", eventType, err)
	}
	return nil
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func applyPatch(o domain.Order, p OrderPatch) domain.Order {
	if p.CustomerName != nil {
		o.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.ContactPerson != nil {
		o.ContactPerson = strings.TrimSpace(*p.ContactPerson)
	}
	if p.Email != nil {
		o.Email = strings.TrimSpace(*p.Email)
	}
	if p.ShippingAddress != nil {
		if addr := strings.TrimSpace(*p.ShippingAddress); addr != "" {
			o.ShippingAddress = &addr
		} else {
			o.ShippingAddress = nil
		}
	}
	if p.DeliveryDate != nil {
		d := *p.DeliveryDate
		o.DeliveryDate = &d
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	return o
}

func detailsOf(o domain.Order) domain.Details {
	return domain.Details{
		CustomerName:    o.CustomerName,
		ContactPerson:   o.ContactPerson,
		Email:           o.Email,
		ShippingAddress: o.ShippingAddress,
		DeliveryDate:    o.DeliveryDate,
		Notes:           o.Notes,
	}
}
