package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Sales-Order-Management/internal/order/application"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
	"github.com/dmehra2102/Sales-Order-Management/pkg/pgxtx"
)

const orderColumns = `id, customer_name, contact_person, email, shipping_address, delivery_date, notes,
	status, salesperson_id, manager_id, warehouse_id, created_at, updated_at, deleted_at`

// Repository stores sale orders and their items. Every method joins the
// transaction carried by ctx, if any.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	q := pgxtx.Conn(ctx, r.pool)
	row := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM sale_orders WHERE id=$1 AND deleted_at IS NULL`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	items, err := r.items(ctx, q, []string{id})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *Repository) List(ctx context.Context, filter application.ListFilter) ([]domain.Order, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if filter.SalespersonID != "" {
		args = append(args, filter.SalespersonID)
		where = append(where, fmt.Sprintf("salesperson_id=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}

	q := pgxtx.Conn(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM sale_orders WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := r.items(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *Repository) Insert(ctx context.Context, o domain.Order) error {
	return r.inTx(ctx, func(ctx context.Context, q pgxtx.Querier) error {
		_, err := q.Exec(ctx, `INSERT INTO sale_orders (id, customer_name, contact_person, email, shipping_address, delivery_date, notes,
				status, salesperson_id, manager_id, warehouse_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			o.ID, o.CustomerName, o.ContactPerson, o.Email, o.ShippingAddress, o.DeliveryDate, o.Notes,
			string(o.Status), o.SalespersonID, o.ManagerID, o.WarehouseID, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return err
		}
		return insertItems(ctx, q, o.ID, o.Items)
	})
}

func (r *Repository) UpdateDetails(ctx context.Context, o domain.Order, expected domain.OrderStatus) error {
	ct, err := pgxtx.Conn(ctx, r.pool).Exec(ctx, `UPDATE sale_orders
		SET customer_name=$3, contact_person=$4, email=$5, shipping_address=$6, delivery_date=$7, notes=$8, updated_at=$9
		WHERE id=$1 AND status=$2 AND deleted_at IS NULL`,
		o.ID, string(expected), o.CustomerName, o.ContactPerson, o.Email, o.ShippingAddress, o.DeliveryDate, o.Notes, o.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrStaleStatus
	}
	return nil
}

func (r *Repository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	return r.inTx(ctx, func(ctx context.Context, q pgxtx.Querier) error {
		if _, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, orderID); err != nil {
			return err
		}
		return insertItems(ctx, q, orderID, items)
	})
}

// UpdateItems writes the stock flags, line status and totals of existing items.
func (r *Repository) UpdateItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`UPDATE order_items SET is_in_stock=$2, line_status=$3, line_total=$4 WHERE id=$1`,
			item.ID, item.IsInStock, string(item.LineStatus), item.LineTotal)
	}
	return pgxtx.Conn(ctx, r.pool).SendBatch(ctx, batch).Close()
}

// ChangeStatus is the serialization point for transitions: the row only moves
// if it is still in change.From.
func (r *Repository) ChangeStatus(ctx context.Context, change application.StatusChange) error {
	ct, err := pgxtx.Conn(ctx, r.pool).Exec(ctx, `UPDATE sale_orders
		SET status=$3, updated_at=$4, manager_id=COALESCE($5, manager_id), warehouse_id=COALESCE($6, warehouse_id)
		WHERE id=$1 AND status=$2 AND deleted_at IS NULL`,
		change.OrderID, string(change.From), string(change.To), change.At, change.ManagerID, change.WarehouseID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrStaleStatus
	}
	r.log.Debug("order status changed", "order_id", change.OrderID, "from", change.From, "to", change.To)
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id string, expected domain.OrderStatus, at time.Time) error {
	ct, err := pgxtx.Conn(ctx, r.pool).Exec(ctx, `UPDATE sale_orders SET deleted_at=$3, updated_at=$3
		WHERE id=$1 AND status=$2 AND deleted_at IS NULL`, id, string(expected), at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrStaleStatus
	}
	return nil
}

func (r *Repository) items(ctx context.Context, q pgxtx.Querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, line_total, is_in_stock, line_status
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		var lineStatus string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.LineTotal, &item.IsInStock, &lineStatus); err != nil {
			return nil, err
		}
		item.LineStatus = domain.LineStatus(lineStatus)
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, rows.Err()
}

// inTx runs fn on the ambient transaction or, when there is none, on a fresh
// one so multi-statement writes never land half way.
func (r *Repository) inTx(ctx context.Context, fn func(ctx context.Context, q pgxtx.Querier) error) error {
	if pgxtx.InTx(ctx) {
		return fn(ctx, pgxtx.Conn(ctx, r.pool))
	}
	return pgxtx.NewTransactor(r.pool).RunInTx(ctx, func(ctx context.Context) error {
		return fn(ctx, pgxtx.Conn(ctx, r.pool))
	})
}

func insertItems(ctx context.Context, q pgxtx.Querier, orderID string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(`INSERT INTO order_items (id, order_id, product_id, position, quantity, unit_price, line_total, is_in_stock, line_status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			item.ID, orderID, item.ProductID, i, item.Quantity, item.UnitPrice, item.LineTotal, item.IsInStock, string(item.LineStatus))
	}
	return q.SendBatch(ctx, batch).Close()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.CustomerName, &o.ContactPerson, &o.Email, &o.ShippingAddress, &o.DeliveryDate, &o.Notes,
		&status, &o.SalespersonID, &o.ManagerID, &o.WarehouseID, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt)
	o.Status = domain.OrderStatus(status)
	return o, err
}
