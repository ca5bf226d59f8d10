package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/usecase"
)

var ErrNotFound = errors.New("not found")

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO orders (order_no,product_id,title,total_fee,status,code_url,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,NOW())
`, o.OrderNo, o.ProductID, o.Title, o.TotalFee, o.Status, o.CodeURL, o.CreatedAt)
	return err
}

func (r *MySQLOrderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT order_no,product_id,title,total_fee,status,code_url,created_at
FROM orders WHERE order_no=?`, orderNo)
	return scanOrder(row)
}

func (r *MySQLOrderRepo) GetPendingByProduct(ctx context.Context, productID int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT order_no,product_id,title,total_fee,status,code_url,created_at
FROM orders WHERE product_id=? AND status=?`, productID, domain.StatusPending)
	return scanOrder(row)
}

func (r *MySQLOrderRepo) SaveCodeURL(ctx context.Context, orderNo, codeURL string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET code_url=?, updated_at=NOW() WHERE order_no=?`, codeURL, orderNo)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusIf is the conditional transition: rows==0 means either the
// order does not exist or another path already moved it.
func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, orderNo string, from, to domain.OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET status=?, updated_at=NOW()
WHERE order_no=? AND status=?`, to, orderNo, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLOrderRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT order_no,product_id,title,total_fee,status,code_url,created_at
FROM orders WHERE status=? AND created_at<=?`, domain.StatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *MySQLOrderRepo) ListByCreateTimeDesc(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT order_no,product_id,title,total_fee,status,code_url,created_at
FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func scanOrder(row *sql.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.OrderNo, &o.ProductID, &o.Title, &o.TotalFee, &o.Status, &o.CodeURL, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	defer rows.Close()
	var out []*domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.OrderNo, &o.ProductID, &o.Title, &o.TotalFee, &o.Status, &o.CodeURL, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
