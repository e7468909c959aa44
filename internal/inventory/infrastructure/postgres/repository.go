package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
	"github.com/dmehra2102/Sales-Order-Management/pkg/pgxtx"
)

// Repository is the stock ledger over the products table. Every method joins
// the transaction carried by ctx, if any.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{
		log:  log,
		pool: pool,
	}
}

func (r *Repository) Save(ctx context.Context, p domain.Product) error {
	now := time.Now().UTC()
	_, err := pgxtx.Conn(ctx, r.pool).Exec(ctx, `INSERT INTO products (id, sku, name, price, stock_quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
		ON CONFLICT (id) DO UPDATE SET sku=$2, name=$3, price=$4, stock_quantity=$5, updated_at=$6`,
		p.ID, p.SKU, p.Name, p.Price, p.StockQuantity, now)
	return err
}

// FindProducts returns the non-deleted products among ids, keyed by id.
// Unknown ids are simply absent from the result.
func (r *Repository) FindProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := pgxtx.Conn(ctx, r.pool).Query(ctx, `SELECT id, sku, name, price, stock_quantity, created_at, updated_at
		FROM products WHERE id = ANY($1) AND deleted_at IS NULL`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repository) GetStock(ctx context.Context, productID string) (int, error) {
	var qty int
	err := pgxtx.Conn(ctx, r.pool).QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id=$1 AND deleted_at IS NULL`, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	return qty, err
}

// DecrementStock removes amount units only if that many are on hand. A row
// count of zero means the stock was consumed by someone else in the meantime.
func (r *Repository) DecrementStock(ctx context.Context, productID string, amount int) error {
	if amount <= 0 {
		return domain.ErrInvalidQuantity
	}
	ct, err := pgxtx.Conn(ctx, r.pool).Exec(ctx, `UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id=$1 AND deleted_at IS NULL AND stock_quantity >= $2`, productID, amount)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s, requested %d", domain.ErrInsufficientStock, productID, amount)
	}
	return nil
}

func (r *Repository) AddStock(ctx context.Context, productID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	var qty int
	err := pgxtx.Conn(ctx, r.pool).QueryRow(ctx, `UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id=$1 AND deleted_at IS NULL RETURNING stock_quantity`, productID, amount).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	r.log.Info("stock replenished", "product_id", productID, "added", amount, "stock", qty)
	return qty, nil
}
