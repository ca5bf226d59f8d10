package usecase

import (
	"context"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/logging"
)

type CancelResult struct {
	Cancelled bool
	// Status is the order's status as observed when cancellation was
	// refused; callers decide whether "not cancellable" is an error.
	Status domain.OrderStatus
}

// CancelOrder closes a PENDING order at the gateway and locally.
// Cancelling an already-paid order is a reported no-op, never a silent
// mutation of money-relevant state.
type CancelOrder struct {
	orders OrderRepo
	gw     GatewayClient
	cache  StatusCache
}

func NewCancelOrder(orders OrderRepo, gw GatewayClient, cache StatusCache) *CancelOrder {
	return &CancelOrder{orders: orders, gw: gw, cache: cache}
}

func (uc *CancelOrder) Execute(ctx context.Context, orderNo string) (CancelResult, error) {
	l := logging.FromCtx(ctx)

	order, err := uc.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return CancelResult{}, err
	}
	if order == nil {
		return CancelResult{}, ErrOrderNotFound
	}
	if order.Status != domain.StatusPending {
		l.Info("order not cancellable", "order_no", orderNo, "status", order.Status)
		return CancelResult{Cancelled: false, Status: order.Status}, nil
	}

	if err := uc.gw.CloseOrder(ctx, orderNo); err != nil {
		return CancelResult{}, err
	}

	applied, err := uc.orders.UpdateStatusIf(ctx, orderNo, domain.StatusPending, domain.StatusCancelled)
	if err != nil {
		return CancelResult{}, err
	}
	if !applied {
		// A payment notification landed between the status read and the
		// guarded update. Report the fresh status instead of pretending
		// the cancel took effect.
		fresh, err := uc.orders.GetByOrderNo(ctx, orderNo)
		if err != nil {
			return CancelResult{}, err
		}
		return CancelResult{Cancelled: false, Status: fresh.Status}, nil
	}

	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, orderNo, string(domain.StatusCancelled))
	}
	l.Info("order cancelled", "order_no", orderNo)
	return CancelResult{Cancelled: true, Status: domain.StatusCancelled}, nil
}
