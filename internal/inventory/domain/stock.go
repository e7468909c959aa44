package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("inventory: product not found")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be positive")
)

type Product struct {
	ID            string
	SKU           string
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Covers reports whether the product's stock can satisfy quantity.
func (p Product) Covers(quantity int) bool {
	return p.StockQuantity >= quantity
}

type StockLevel struct {
	ProductID string
	Quantity  int
}
