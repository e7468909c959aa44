package application

import (
	"context"
	"errors"
	"fmt"

	invdomain "github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

func (s *Service) Submit(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionSubmit, notes)
}

func (s *Service) Approve(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionApprove, notes)
}

func (s *Service) Reject(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionReject, notes)
}

func (s *Service) StartPacking(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionStartPacking, notes)
}

func (s *Service) MarkPacked(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionMarkPacked, notes)
}

func (s *Service) MarkShipped(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionMarkShipped, notes)
}

func (s *Service) MarkDelivered(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionMarkDelivered, notes)
}

func (s *Service) Fulfill(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionFulfill, notes)
}

// Reopen sends a rejected order back to draft.
func (s *Service) Reopen(ctx context.Context, actor domain.Actor, orderID, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.ActionReopen, notes)
}

// Transition runs action by name. Unknown actions are illegal transitions.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, orderID string, action domain.Action, notes string) (domain.Order, error) {
	return s.transition(ctx, actor, orderID, action, notes)
}

func (s *Service) transition(ctx context.Context, actor domain.Actor, orderID string, action domain.Action, notes string) (domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	t, ok := domain.TransitionFor(action)
	if !ok {
		return domain.Order{}, &domain.IllegalTransitionError{From: order.Status, Action: action}
	}
	if order.Status != t.From {
		return domain.Order{}, &domain.IllegalTransitionError{From: order.Status, To: t.To, Action: action}
	}
	if !domain.CanTransition(actor, order, action) {
		return domain.Order{}, domain.ErrPermissionDenied
	}

	items := order.Items
	if t.StockGate {
		var issues []domain.StockIssue
		items, issues, err = s.validator.Recheck(ctx, order.Items)
		if err != nil {
			return domain.Order{}, err
		}
		if len(issues) > 0 {
			return domain.Order{}, &domain.InsufficientStockError{Issues: issues}
		}
	}

	now := s.now()
	change := StatusChange{OrderID: order.ID, From: t.From, To: t.To, At: now}
	if t.SetsManager() {
		change.ManagerID = &actor.ID
	}
	if t.SetsWarehouse() {
		change.WarehouseID = &actor.ID
	}

	var historyErr error
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orders.ChangeStatus(ctx, change); err != nil {
			if errors.Is(err, domain.ErrStaleStatus) {
				return s.staleError(ctx, order.ID, t.To, action)
			}
			return fmt.Errorf("change status: %w", err)
		}

		switch {
		case t.StockGate:
			if err := s.orders.UpdateItems(ctx, items); err != nil {
				return fmt.Errorf("update items: %w", err)
			}
		case t.ConsumesStock:
			consumed, err := s.consumeStock(ctx, order.Items)
			if err != nil {
				return err
			}
			if err := s.orders.UpdateItems(ctx, consumed); err != nil {
				return fmt.Errorf("update items: %w", err)
			}
			items = consumed
		}

		entry := domain.NewStatusHistory(s.newID(), order.ID, t.From, t.To, actor.ID, notes, now)
		if err := s.history.Record(ctx, entry); err != nil {
			if s.atomic {
				return fmt.Errorf("record status history: %w", err)
			}
			historyErr = err
			return nil
		}

		event := domain.OrderStatusChanged{
			OrderID:        order.ID,
			PreviousStatus: t.From,
			NewStatus:      t.To,
			ChangedBy:      actor.ID,
			ChangedAt:      now,
		}
		if entry.Notes != nil {
			event.Notes = *entry.Notes
		}
		return s.enqueue(ctx, order.ID, domain.EventOrderStatusChanged, event)
	})
	if err != nil {
		return domain.Order{}, err
	}

	order.Status = t.To
	order.UpdatedAt = now
	order.Items = items
	if change.ManagerID != nil {
		order.ManagerID = change.ManagerID
	}
	if change.WarehouseID != nil {
		order.WarehouseID = change.WarehouseID
	}
	if historyErr != nil {
		return order, &domain.PartialFailureError{OrderID: order.ID, Err: historyErr}
	}
	return order, nil
}

// consumeStock decrements stock for every in-stock line. Lines that were not
// in stock are backordered and left alone. If any conditional decrement finds
// too little stock the caller's transaction must be rolled back; the returned
// error lists every short line.
func (s *Service) consumeStock(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, error) {
	out := make([]domain.OrderItem, len(items))
	var short []domain.OrderItem
	for i, item := range items {
		if !item.IsInStock {
			item.LineStatus = domain.LineBackordered
			out[i] = item
			continue
		}
		if err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			if !errors.Is(err, invdomain.ErrInsufficientStock) {
				return nil, fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
			}
			short = append(short, item)
			continue
		}
		item.LineStatus = domain.LineFulfilled
		out[i] = item
	}
	if len(short) == 0 {
		return out, nil
	}
	return nil, s.shortageError(ctx, short)
}

func (s *Service) shortageError(ctx context.Context, short []domain.OrderItem) error {
	ids := make([]string, 0, len(short))
	for _, item := range short {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("describe stock shortage: %w", err)
	}
	issues := make([]domain.StockIssue, 0, len(short))
	for _, item := range short {
		issue := domain.StockIssue{ProductID: item.ProductID, Product: item.ProductID, Requested: item.Quantity}
		if p, ok := products[item.ProductID]; ok {
			issue.Product = p.Name
			issue.Available = p.StockQuantity
		}
		issues = append(issues, issue)
	}
	return &domain.InsufficientStockError{Issues: issues}
}
