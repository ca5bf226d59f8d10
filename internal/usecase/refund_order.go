package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/logging"
)

// RequestRefund opens a full refund against a paid order. Gateway
// failures propagate to the caller: a refund request is user-initiated,
// so it is never silently swallowed and retried.
type RequestRefund struct {
	orders  OrderRepo
	refunds RefundRepo
	gw      GatewayClient
	cache   StatusCache
}

func NewRequestRefund(orders OrderRepo, refunds RefundRepo, gw GatewayClient, cache StatusCache) *RequestRefund {
	return &RequestRefund{orders: orders, refunds: refunds, gw: gw, cache: cache}
}

func (uc *RequestRefund) Execute(ctx context.Context, orderNo, reason string) (*domain.Refund, error) {
	l := logging.FromCtx(ctx)

	order, err := uc.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.Status.Refundable() {
		return nil, ErrInvalidState
	}

	refund := &domain.Refund{
		RefundNo:  NewRefundNo(),
		OrderNo:   orderNo,
		Reason:    reason,
		TotalFee:  order.TotalFee,
		RefundFee: order.TotalFee, // full refund
		Status:    domain.RefundCreated,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.refunds.Create(ctx, refund); err != nil {
		return nil, err
	}

	rawBody, err := uc.gw.CreateRefund(ctx, refund)
	if err != nil {
		l.Error("refund apply failed", "refund_no", refund.RefundNo, "err", err)
		return nil, err
	}

	applied, err := uc.orders.UpdateStatusIf(ctx, orderNo, domain.StatusSuccess, domain.StatusRefundProcessing)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Another refund request won the race; this record stays CREATED
		// and the gateway will reject or dedupe the duplicate apply.
		l.Warn("order left SUCCESS before refund transition", "order_no", orderNo, "refund_no", refund.RefundNo)
		return nil, ErrInvalidState
	}
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, orderNo, string(domain.StatusRefundProcessing))
	}

	resp, err := ParseRefundApplyResponse([]byte(rawBody))
	if err != nil {
		// Order is already REFUND_PROCESSING; reconciliation will fill in
		// the gateway fields on its next pass.
		l.Error("unparseable refund apply response", "refund_no", refund.RefundNo, "err", err)
		return refund, nil
	}
	res := domain.GatewayRefundResult{
		GatewayRefundID: resp.RefundID,
		Status:          mapRefundStatus(resp.Status),
		RefundedFee:     resp.Amount.Refund,
		RawBody:         rawBody,
	}
	if err := uc.refunds.ApplyGatewayResult(ctx, refund.RefundNo, res, domain.ChannelApplyResponse); err != nil {
		return nil, err
	}

	l.Info("refund requested", "order_no", orderNo, "refund_no", refund.RefundNo, "refund_fee", refund.RefundFee)
	return refund, nil
}
