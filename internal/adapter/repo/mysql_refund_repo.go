package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/usecase"
)

type MySQLRefundRepo struct{ db *sql.DB }

func NewMySQLRefundRepo(db *sql.DB) *MySQLRefundRepo { return &MySQLRefundRepo{db: db} }

func (r *MySQLRefundRepo) Create(ctx context.Context, rf *domain.Refund) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO refunds (refund_no,order_no,reason,total_fee,refund_fee,refunded_fee,status,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,NOW())
`, rf.RefundNo, rf.OrderNo, rf.Reason, rf.TotalFee, rf.RefundFee, rf.RefundedFee, rf.Status, rf.CreatedAt)
	return err
}

func (r *MySQLRefundRepo) GetByRefundNo(ctx context.Context, refundNo string) (*domain.Refund, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT refund_no,order_no,reason,total_fee,refund_fee,refunded_fee,status,gateway_refund_id,content_return,content_notify,created_at
FROM refunds WHERE refund_no=?`, refundNo)

	var rf domain.Refund
	var gwID, cRet, cNot sql.NullString
	err := row.Scan(&rf.RefundNo, &rf.OrderNo, &rf.Reason, &rf.TotalFee, &rf.RefundFee,
		&rf.RefundedFee, &rf.Status, &gwID, &cRet, &cNot, &rf.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rf.GatewayRefundID = gwID.String
	rf.ContentReturn = cRet.String
	rf.ContentNotify = cNot.String
	return &rf, nil
}

// ApplyGatewayResult merges gateway fields into the record. The channel
// selects the raw-payload column; the two columns are never cross-written.
func (r *MySQLRefundRepo) ApplyGatewayResult(ctx context.Context, refundNo string, res domain.GatewayRefundResult, channel domain.RefundChannel) error {
	var contentCol string
	switch channel {
	case domain.ChannelApplyResponse:
		contentCol = "content_return"
	case domain.ChannelNotifyCallback:
		contentCol = "content_notify"
	default:
		return fmt.Errorf("unknown refund channel %q", channel)
	}

	res2, err := r.db.ExecContext(ctx, `
UPDATE refunds SET gateway_refund_id=?, status=?, refunded_fee=?, `+contentCol+`=?, updated_at=NOW()
WHERE refund_no=?`, res.GatewayRefundID, res.Status, res.RefundedFee, res.RawBody, refundNo)
	if err != nil {
		return err
	}
	rows, err := res2.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLRefundRepo) ListUnsettledOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Refund, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT refund_no,order_no,reason,total_fee,refund_fee,refunded_fee,status,gateway_refund_id,content_return,content_notify,created_at
FROM refunds WHERE status NOT IN (?,?) AND created_at<=?`,
		domain.RefundSuccess, domain.RefundAbnormal, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Refund
	for rows.Next() {
		var rf domain.Refund
		var gwID, cRet, cNot sql.NullString
		if err := rows.Scan(&rf.RefundNo, &rf.OrderNo, &rf.Reason, &rf.TotalFee, &rf.RefundFee,
			&rf.RefundedFee, &rf.Status, &gwID, &cRet, &cNot, &rf.CreatedAt); err != nil {
			return nil, err
		}
		rf.GatewayRefundID = gwID.String
		rf.ContentReturn = cRet.String
		rf.ContentNotify = cNot.String
		out = append(out, &rf)
	}
	return out, rows.Err()
}

var _ usecase.RefundRepo = (*MySQLRefundRepo)(nil)
