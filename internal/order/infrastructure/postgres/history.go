package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
	"github.com/dmehra2102/Sales-Order-Management/pkg/pgxtx"
)

// HistoryRepository is the append-only order_status_history table.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Record(ctx context.Context, h domain.StatusHistory) error {
	_, err := pgxtx.Conn(ctx, r.pool).Exec(ctx, `INSERT INTO order_status_history (id, order_id, previous_status, new_status, changed_by, changed_at, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		h.ID, h.OrderID, string(h.PreviousStatus), string(h.NewStatus), h.ChangedBy, h.ChangedAt, h.Notes)
	return err
}

func (r *HistoryRepository) List(ctx context.Context, orderID string) ([]domain.StatusHistory, error) {
	rows, err := pgxtx.Conn(ctx, r.pool).Query(ctx, `SELECT id, order_id, previous_status, new_status, changed_by, changed_at, notes
		FROM order_status_history WHERE order_id=$1 ORDER BY changed_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusHistory
	for rows.Next() {
		var h domain.StatusHistory
		var prev, next string
		if err := rows.Scan(&h.ID, &h.OrderID, &prev, &next, &h.ChangedBy, &h.ChangedAt, &h.Notes); err != nil {
			return nil, err
		}
		h.PreviousStatus = domain.OrderStatus(prev)
		h.NewStatus = domain.OrderStatus(next)
		out = append(out, h)
	}
	return out, rows.Err()
}
