package application

import (
	"context"
)

type StockRepository interface {
	GetStock(ctx context.Context, productID string) (int, error)
	AddStock(ctx context.Context, productID string, amount int) (int, error)
}
