package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
)

// Persistence and gateway ports. Adapters live under internal/adapter.

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error)
	// GetPendingByProduct returns the open (PENDING) order for a product,
	// or nil if none exists. At most one open order per product at a time.
	GetPendingByProduct(ctx context.Context, productID int64) (*domain.Order, error)
	SaveCodeURL(ctx context.Context, orderNo, codeURL string) error
	// UpdateStatusIf applies orderNo: from -> to only if the current status
	// still equals from, and reports whether the row was updated. This is
	// the single mutation path for order status and the system's
	// consistency mechanism: every transition is guarded by it.
	UpdateStatusIf(ctx context.Context, orderNo string, from, to domain.OrderStatus) (bool, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Order, error)
	ListByCreateTimeDesc(ctx context.Context) ([]*domain.Order, error)
}

type RefundRepo interface {
	Create(ctx context.Context, r *domain.Refund) error
	GetByRefundNo(ctx context.Context, refundNo string) (*domain.Refund, error)
	// ApplyGatewayResult merges a gateway-reported refund outcome into the
	// record. The channel decides which raw-payload column is written;
	// apply-response and notify-callback payloads never overwrite each other.
	ApplyGatewayResult(ctx context.Context, refundNo string, res domain.GatewayRefundResult, channel domain.RefundChannel) error
	// ListUnsettledOlderThan returns refunds created before cutoff that are
	// not yet in a terminal refund status.
	ListUnsettledOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Refund, error)
}

type LedgerRepo interface {
	Create(ctx context.Context, e *domain.PaymentLedgerEntry) error
}

type ProductRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// GatewayClient is the signed HTTP surface of the payment gateway.
// Every call is a synchronous RPC with a timeout; non-2xx responses
// surface as *GatewayError.
type GatewayClient interface {
	CreatePaymentIntent(ctx context.Context, o *domain.Order) (codeURL string, err error)
	QueryOrder(ctx context.Context, orderNo string) (*GatewayOrder, error)
	CloseOrder(ctx context.Context, orderNo string) error
	CreateRefund(ctx context.Context, r *domain.Refund) (rawBody string, err error)
	QueryRefund(ctx context.Context, refundNo string) (*GatewayRefund, error)
}

// GatewayOrder is the decoded query-order response.
type GatewayOrder struct {
	OrderNo       string
	TransactionID string
	TradeType     string
	TradeState    string
	TradeStateDesc string
	PayerTotal    int64
	RawBody       string
}

// GatewayRefund is the decoded query-refund response.
type GatewayRefund struct {
	RefundNo        string
	OrderNo         string
	GatewayRefundID string
	Status          string
	RefundedFee     int64
	RawBody         string
}

// Gateway trade / refund states this core reacts to.
const (
	TradeStateSuccess = "SUCCESS"
	TradeStateNotPay  = "NOTPAY"

	RefundStateSuccess  = "SUCCESS"
	RefundStateAbnormal = "ABNORMAL"
)

// EventPublisher pushes domain events to the broker. Publishing is
// best-effort: a failure is logged by the caller and never blocks or
// rolls back a transition.
type EventPublisher interface {
	PublishPaymentConfirmed(ctx context.Context, ev PaymentConfirmedMsg) error
	PublishRefundFinished(ctx context.Context, ev RefundFinishedMsg) error
}

type PaymentConfirmedMsg struct {
	OrderNo       string `json:"order_no"`
	TransactionID string `json:"transaction_id"`
	PayerTotal    int64  `json:"payer_total"`
}

type RefundFinishedMsg struct {
	OrderNo  string `json:"order_no"`
	RefundNo string `json:"refund_no"`
	Status   string `json:"status"`
}

// StatusCache is the read-side cache for the payment-status polling
// endpoint. Best-effort on writes.
type StatusCache interface {
	SetStatus(ctx context.Context, orderNo string, status string) error
	GetStatus(ctx context.Context, orderNo string) (string, bool, error)
}
