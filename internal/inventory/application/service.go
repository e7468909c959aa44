package application

import (
	"context"
	"strings"

	"github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
	orderdomain "github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

type Service struct {
	repo StockRepository
}

func NewService(repo StockRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetStock(ctx context.Context, productID string) (domain.StockLevel, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.StockLevel{}, domain.ErrProductNotFound
	}
	qty, err := s.repo.GetStock(ctx, productID)
	if err != nil {
		return domain.StockLevel{}, err
	}
	return domain.StockLevel{ProductID: productID, Quantity: qty}, nil
}

// Restock adds amount units to a product. Managers and warehouse staff only.
func (s *Service) Restock(ctx context.Context, actor orderdomain.Actor, productID string, amount int) (domain.StockLevel, error) {
	if actor.Role != orderdomain.RoleManager && actor.Role != orderdomain.RoleWarehouse {
		return domain.StockLevel{}, orderdomain.ErrPermissionDenied
	}
	if amount <= 0 {
		return domain.StockLevel{}, domain.ErrInvalidQuantity
	}
	productID = strings.TrimSpace(productID)
	qty, err := s.repo.AddStock(ctx, productID, amount)
	if err != nil {
		return domain.StockLevel{}, err
	}
	return domain.StockLevel{ProductID: productID, Quantity: qty}, nil
}
