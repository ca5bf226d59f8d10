package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/logging"
)

// ReconcileReport summarizes one reconciliation pass. Per-item failures
// are counted, logged and skipped; they never abort the batch.
type ReconcileReport struct {
	Scanned   int
	Confirmed int // orders the gateway reported paid
	Closed    int // orders closed at the gateway and locally
	Settled   int // refunds settled successfully
	Abnormal  int // refunds the gateway reported abnormal
	Skipped   int // no-ops: raced transitions, indeterminate gateway state
	Errors    int // transient failures, retried on the next pass
}

// Reconciler actively re-queries the gateway for orders and refunds
// stuck past the grace period, healing any notification that was lost.
// Both jobs are pure functions of the supplied clock reading so an
// external timer can drive them and tests can feed synthetic times.
type Reconciler struct {
	orders  OrderRepo
	refunds RefundRepo
	ledger  LedgerRepo
	gw      GatewayClient
	events  EventPublisher // optional
	cache   StatusCache    // optional
	grace   time.Duration
}

func NewReconciler(orders OrderRepo, refunds RefundRepo, ledger LedgerRepo, gw GatewayClient, events EventPublisher, cache StatusCache, grace time.Duration) *Reconciler {
	if grace <= 0 {
		grace = 5 * time.Minute
	}
	return &Reconciler{
		orders:  orders,
		refunds: refunds,
		ledger:  ledger,
		gw:      gw,
		events:  events,
		cache:   cache,
		grace:   grace,
	}
}

// ReconcileOrders resolves PENDING orders older than the grace period.
func (r *Reconciler) ReconcileOrders(ctx context.Context, now time.Time) (ReconcileReport, error) {
	l := logging.FromCtx(ctx)
	var rep ReconcileReport

	pending, err := r.orders.ListPendingOlderThan(ctx, now.Add(-r.grace))
	if err != nil {
		return rep, err
	}
	rep.Scanned = len(pending)

	for _, order := range pending {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := r.reconcileOrder(ctx, order, &rep); err != nil {
			// Transient: query or close failed. Next pass retries.
			l.Warn("order reconciliation failed", "order_no", order.OrderNo, "err", err)
			rep.Errors++
		}
	}
	return rep, nil
}

func (r *Reconciler) reconcileOrder(ctx context.Context, order *domain.Order, rep *ReconcileReport) error {
	l := logging.FromCtx(ctx).With("order_no", order.OrderNo)

	gwOrder, err := r.gw.QueryOrder(ctx, order.OrderNo)
	if err != nil {
		return err
	}

	switch gwOrder.TradeState {
	case TradeStateSuccess:
		// A notification may have landed since the listing; the guarded
		// update decides, and the ledger write only follows an applied
		// transition.
		applied, err := r.orders.UpdateStatusIf(ctx, order.OrderNo, domain.StatusPending, domain.StatusSuccess)
		if err != nil {
			return err
		}
		if !applied {
			rep.Skipped++
			return nil
		}
		entry := &domain.PaymentLedgerEntry{
			OrderNo:       order.OrderNo,
			TransactionID: gwOrder.TransactionID,
			TradeType:     gwOrder.TradeType,
			TradeState:    gwOrder.TradeStateDesc,
			PayerTotal:    gwOrder.PayerTotal,
			Content:       gwOrder.RawBody,
			CreatedAt:     time.Now().UTC(),
		}
		if err := r.ledger.Create(ctx, entry); err != nil {
			return err
		}
		if r.cache != nil {
			_ = r.cache.SetStatus(ctx, order.OrderNo, string(domain.StatusSuccess))
		}
		if r.events != nil {
			if err := r.events.PublishPaymentConfirmed(ctx, PaymentConfirmedMsg{
				OrderNo:       order.OrderNo,
				TransactionID: gwOrder.TransactionID,
				PayerTotal:    gwOrder.PayerTotal,
			}); err != nil {
				l.Error("publish payment.confirmed failed", "err", err)
			}
		}
		l.Warn("stale order confirmed paid via reconciliation")
		rep.Confirmed++

	case TradeStateNotPay:
		if err := r.gw.CloseOrder(ctx, order.OrderNo); err != nil {
			return err
		}
		applied, err := r.orders.UpdateStatusIf(ctx, order.OrderNo, domain.StatusPending, domain.StatusClosed)
		if err != nil {
			return err
		}
		if !applied {
			rep.Skipped++
			return nil
		}
		if r.cache != nil {
			_ = r.cache.SetStatus(ctx, order.OrderNo, string(domain.StatusClosed))
		}
		l.Warn("stale unpaid order closed")
		rep.Closed++

	default:
		// USERPAYING and friends: indeterminate, leave it for the next run.
		l.Info("order still indeterminate at gateway", "trade_state", gwOrder.TradeState)
		rep.Skipped++
	}
	return nil
}

// ReconcileRefunds resolves refunds older than the grace period whose
// parent order is still REFUND_PROCESSING.
func (r *Reconciler) ReconcileRefunds(ctx context.Context, now time.Time) (ReconcileReport, error) {
	l := logging.FromCtx(ctx)
	var rep ReconcileReport

	unsettled, err := r.refunds.ListUnsettledOlderThan(ctx, now.Add(-r.grace))
	if err != nil {
		return rep, err
	}
	rep.Scanned = len(unsettled)

	for _, refund := range unsettled {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := r.reconcileRefund(ctx, refund, &rep); err != nil {
			l.Warn("refund reconciliation failed", "refund_no", refund.RefundNo, "err", err)
			rep.Errors++
		}
	}
	return rep, nil
}

func (r *Reconciler) reconcileRefund(ctx context.Context, refund *domain.Refund, rep *ReconcileReport) error {
	l := logging.FromCtx(ctx).With("refund_no", refund.RefundNo, "order_no", refund.OrderNo)

	order, err := r.orders.GetByOrderNo(ctx, refund.OrderNo)
	if err != nil {
		return err
	}
	if order == nil || order.Status != domain.StatusRefundProcessing {
		rep.Skipped++
		return nil
	}

	gwRefund, err := r.gw.QueryRefund(ctx, refund.RefundNo)
	if err != nil {
		return err
	}

	var target domain.OrderStatus
	switch gwRefund.Status {
	case RefundStateSuccess:
		target = domain.StatusRefundSuccess
	case RefundStateAbnormal:
		target = domain.StatusRefundAbnormal
	default:
		l.Info("refund still processing at gateway", "status", gwRefund.Status)
		rep.Skipped++
		return nil
	}

	applied, err := r.orders.UpdateStatusIf(ctx, refund.OrderNo, domain.StatusRefundProcessing, target)
	if err != nil {
		return err
	}
	if !applied {
		rep.Skipped++
		return nil
	}

	res := domain.GatewayRefundResult{
		GatewayRefundID: gwRefund.GatewayRefundID,
		Status:          mapRefundStatus(gwRefund.Status),
		RefundedFee:     gwRefund.RefundedFee,
		RawBody:         gwRefund.RawBody,
	}
	if err := r.refunds.ApplyGatewayResult(ctx, refund.RefundNo, res, domain.ChannelApplyResponse); err != nil {
		return err
	}
	if r.cache != nil {
		_ = r.cache.SetStatus(ctx, refund.OrderNo, string(target))
	}
	if r.events != nil {
		if err := r.events.PublishRefundFinished(ctx, RefundFinishedMsg{
			OrderNo:  refund.OrderNo,
			RefundNo: refund.RefundNo,
			Status:   string(target),
		}); err != nil {
			l.Error("publish refund.finished failed", "err", err)
		}
	}

	if target == domain.StatusRefundAbnormal {
		l.Warn("refund reported abnormal via reconciliation")
		rep.Abnormal++
	} else {
		l.Warn("stale refund settled via reconciliation")
		rep.Settled++
	}
	return nil
}
