package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/usecase"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

func (r *MySQLProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,title,price FROM products WHERE id=?`, id)
	var p domain.Product
	err := row.Scan(&p.ID, &p.Title, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ usecase.ProductRepo = (*MySQLProductRepo)(nil)
