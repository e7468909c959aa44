package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

// ItemValidator resolves requested lines against the product catalog.
type ItemValidator struct {
	products ProductCatalog
	newID    func() string
}

func NewItemValidator(products ProductCatalog) *ItemValidator {
	return &ItemValidator{products: products, newID: uuid.NewString}
}

// Validate builds order items for reqs. A product that does not exist fails
// the whole batch with an InvalidReferenceError. Lines whose quantity exceeds
// current stock are returned with IsInStock=false and reported as issues;
// callers decide whether issues block them.
func (v *ItemValidator) Validate(ctx context.Context, reqs []domain.ItemRequest) ([]domain.OrderItem, []domain.StockIssue, error) {
	products, err := v.products.FindProducts(ctx, productIDs(reqs))
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.OrderItem, 0, len(reqs))
	var issues []domain.StockIssue
	for _, req := range reqs {
		product, ok := products[req.ProductID]
		if !ok {
			return nil, nil, &domain.InvalidReferenceError{ProductID: req.ProductID}
		}
		inStock := product.Covers(req.Quantity)
		items = append(items, domain.OrderItem{
			ID:         v.newID(),
			ProductID:  req.ProductID,
			Quantity:   req.Quantity,
			UnitPrice:  req.UnitPrice,
			LineTotal:  domain.LineTotal(req.Quantity, req.UnitPrice),
			IsInStock:  inStock,
			LineStatus: domain.LinePending,
		})
		if !inStock {
			issues = append(issues, domain.StockIssue{
				ProductID: product.ID,
				Product:   product.Name,
				Requested: req.Quantity,
				Available: product.StockQuantity,
			})
		}
	}
	return items, issues, nil
}

// Recheck re-evaluates stock for existing items, returning copies with
// IsInStock refreshed. Items keep their ids, prices and totals.
func (v *ItemValidator) Recheck(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, []domain.StockIssue, error) {
	reqs := make([]domain.ItemRequest, 0, len(items))
	for _, item := range items {
		reqs = append(reqs, domain.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	validated, issues, err := v.Validate(ctx, reqs)
	if err != nil {
		return nil, nil, err
	}
	out := make([]domain.OrderItem, len(items))
	for i, item := range items {
		item.IsInStock = validated[i].IsInStock
		item.LineTotal = domain.LineTotal(item.Quantity, item.UnitPrice)
		out[i] = item
	}
	return out, issues, nil
}

func productIDs(reqs []domain.ItemRequest) []string {
	seen := make(map[string]struct{}, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if _, ok := seen[req.ProductID]; ok {
			continue
		}
		seen[req.ProductID] = struct{}{}
		ids = append(ids, req.ProductID)
	}
	return ids
}
