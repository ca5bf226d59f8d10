package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/logging"
)

// NotifyOutcome tells the caller what a notification actually did, so
// the HTTP layer can count duplicates and contention separately from
// applied work. Every outcome except a hard error is acknowledged to
// the gateway as success.
type NotifyOutcome string

const (
	// OutcomeApplied: the transition and its side effects ran.
	OutcomeApplied NotifyOutcome = "applied"
	// OutcomeDuplicate: the order already left the expected state; the
	// event was handled before.
	OutcomeDuplicate NotifyOutcome = "duplicate"
	// OutcomeContended: another delivery for the same order holds the
	// gate right now. The gateway's redelivery or reconciliation will
	// finish the work.
	OutcomeContended NotifyOutcome = "contended"
	// OutcomeOutOfFlow: a refund notification arrived for an order that
	// was never moved into the refund flow. Functionally a no-op like
	// duplicate, but logged apart because it can indicate a real bug.
	OutcomeOutOfFlow NotifyOutcome = "out_of_flow"
)

// NotificationProcessor turns verified, decrypted gateway payloads into
// exactly one state transition plus side effects, however many times a
// notification is delivered and however many deliveries race.
//
// Two layers guarantee that:
//   - a per-order try-once gate sheds duplicate work early, without
//     serializing unrelated orders;
//   - every write is a guarded update ("set status=X where status=Y"),
//     so even a delivery racing the reconciler cannot apply twice.
type NotificationProcessor struct {
	orders  OrderRepo
	refunds RefundRepo
	ledger  LedgerRepo
	events  EventPublisher // optional
	cache   StatusCache    // optional
	locks   *keyedTryLock
}

func NewNotificationProcessor(orders OrderRepo, refunds RefundRepo, ledger LedgerRepo, events EventPublisher, cache StatusCache) *NotificationProcessor {
	return &NotificationProcessor{
		orders:  orders,
		refunds: refunds,
		ledger:  ledger,
		events:  events,
		cache:   cache,
		locks:   newKeyedTryLock(),
	}
}

// ProcessPaymentNotification handles a decrypted payment-success payload.
func (p *NotificationProcessor) ProcessPaymentNotification(ctx context.Context, plaintext []byte) (NotifyOutcome, error) {
	l := logging.FromCtx(ctx)

	n, err := ParsePaymentNotification(plaintext)
	if err != nil {
		return "", err
	}
	l = l.With("order_no", n.OrderNo)

	if !p.locks.TryLock(n.OrderNo) {
		l.Info("payment notification contended, dropping")
		return OutcomeContended, nil
	}
	defer p.locks.Unlock(n.OrderNo)

	// The status re-read must happen under the gate: two deliveries that
	// both read PENDING before either wrote would otherwise double-book.
	order, err := p.orders.GetByOrderNo(ctx, n.OrderNo)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", ErrOrderNotFound
	}
	if order.Status != domain.StatusPending {
		l.Info("duplicate payment notification", "status", order.Status)
		return OutcomeDuplicate, nil
	}

	applied, err := p.orders.UpdateStatusIf(ctx, n.OrderNo, domain.StatusPending, domain.StatusSuccess)
	if err != nil {
		return "", err
	}
	if !applied {
		// Reconciliation confirmed the order between our read and write.
		l.Info("payment already confirmed by another path")
		return OutcomeDuplicate, nil
	}

	entry := &domain.PaymentLedgerEntry{
		OrderNo:       n.OrderNo,
		TransactionID: n.TransactionID,
		TradeType:     n.TradeType,
		TradeState:    n.TradeStateDesc,
		PayerTotal:    n.Amount.PayerTotal,
		Content:       string(plaintext),
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.ledger.Create(ctx, entry); err != nil {
		// Status already moved; surface the error so it is not lost, the
		// ledger row needs manual attention.
		l.Error("ledger write failed after confirm", "err", err)
		return OutcomeApplied, err
	}

	p.afterPaymentConfirmed(ctx, n.OrderNo, n.TransactionID, n.Amount.PayerTotal)
	l.Info("payment confirmed", "transaction_id", n.TransactionID, "payer_total", n.Amount.PayerTotal)
	return OutcomeApplied, nil
}

// ProcessRefundNotification handles a decrypted refund-result payload.
func (p *NotificationProcessor) ProcessRefundNotification(ctx context.Context, plaintext []byte) (NotifyOutcome, error) {
	l := logging.FromCtx(ctx)

	n, err := ParseRefundNotification(plaintext)
	if err != nil {
		return "", err
	}
	l = l.With("order_no", n.OrderNo, "refund_no", n.RefundNo)

	if !p.locks.TryLock(n.OrderNo) {
		l.Info("refund notification contended, dropping")
		return OutcomeContended, nil
	}
	defer p.locks.Unlock(n.OrderNo)

	order, err := p.orders.GetByOrderNo(ctx, n.OrderNo)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", ErrOrderNotFound
	}
	if order.Status != domain.StatusRefundProcessing {
		// "Already settled" and "never in the refund flow" are both
		// no-ops but mean very different things.
		switch order.Status {
		case domain.StatusRefundSuccess, domain.StatusRefundAbnormal:
			l.Info("duplicate refund notification", "status", order.Status)
			return OutcomeDuplicate, nil
		default:
			l.Warn("refund notification for order outside refund flow", "status", order.Status)
			return OutcomeOutOfFlow, nil
		}
	}

	target := domain.StatusRefundSuccess
	if n.RefundStatus == RefundStateAbnormal {
		target = domain.StatusRefundAbnormal
	}
	applied, err := p.orders.UpdateStatusIf(ctx, n.OrderNo, domain.StatusRefundProcessing, target)
	if err != nil {
		return "", err
	}
	if !applied {
		l.Info("refund already settled by another path")
		return OutcomeDuplicate, nil
	}

	res := domain.GatewayRefundResult{
		GatewayRefundID: n.RefundID,
		Status:          mapRefundStatus(n.RefundStatus),
		RefundedFee:     n.Amount.Refund,
		RawBody:         string(plaintext),
	}
	if err := p.refunds.ApplyGatewayResult(ctx, n.RefundNo, res, domain.ChannelNotifyCallback); err != nil {
		l.Error("refund merge failed after transition", "err", err)
		return OutcomeApplied, err
	}

	p.afterRefundFinished(ctx, n.OrderNo, n.RefundNo, target)
	l.Info("refund settled", "status", target)
	return OutcomeApplied, nil
}

func (p *NotificationProcessor) afterPaymentConfirmed(ctx context.Context, orderNo, txID string, payerTotal int64) {
	if p.cache != nil {
		_ = p.cache.SetStatus(ctx, orderNo, string(domain.StatusSuccess))
	}
	if p.events != nil {
		if err := p.events.PublishPaymentConfirmed(ctx, PaymentConfirmedMsg{
			OrderNo:       orderNo,
			TransactionID: txID,
			PayerTotal:    payerTotal,
		}); err != nil {
			logging.FromCtx(ctx).Error("publish payment.confirmed failed", "order_no", orderNo, "err", err)
		}
	}
}

func (p *NotificationProcessor) afterRefundFinished(ctx context.Context, orderNo, refundNo string, status domain.OrderStatus) {
	if p.cache != nil {
		_ = p.cache.SetStatus(ctx, orderNo, string(status))
	}
	if p.events != nil {
		if err := p.events.PublishRefundFinished(ctx, RefundFinishedMsg{
			OrderNo:  orderNo,
			RefundNo: refundNo,
			Status:   string(status),
		}); err != nil {
			logging.FromCtx(ctx).Error("publish refund.finished failed", "refund_no", refundNo, "err", err)
		}
	}
}
