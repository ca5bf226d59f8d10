package repo

import (
	"context"
	"database/sql"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/usecase"
)

// MySQLLedgerRepo stores payment ledger entries. Rows are append-only;
// the unique index on order_no backs up the conditional-update gate in
// the processing paths.
type MySQLLedgerRepo struct{ db *sql.DB }

func NewMySQLLedgerRepo(db *sql.DB) *MySQLLedgerRepo { return &MySQLLedgerRepo{db: db} }

func (r *MySQLLedgerRepo) Create(ctx context.Context, e *domain.PaymentLedgerEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO payment_ledger (order_no,transaction_id,trade_type,trade_state,payer_total,content,created_at)
VALUES (?,?,?,?,?,?,?)
`, e.OrderNo, e.TransactionID, e.TradeType, e.TradeState, e.PayerTotal, e.Content, e.CreatedAt)
	return err
}

var _ usecase.LedgerRepo = (*MySQLLedgerRepo)(nil)
