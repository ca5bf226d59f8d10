package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/logging"
)

// testCtx carries a discard logger so tests stay quiet and never touch
// the global log file.
func testCtx() context.Context {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return logging.WithCtx(context.Background(), l)
}

// --- in-memory order repo ---

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *memOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.OrderNo] = &cp
	return nil
}

func (r *memOrderRepo) GetByOrderNo(_ context.Context, orderNo string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNo]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) GetPendingByProduct(_ context.Context, productID int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ProductID == productID && o.Status == domain.StatusPending {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memOrderRepo) SaveCodeURL(_ context.Context, orderNo, codeURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[orderNo]; ok {
		o.CodeURL = codeURL
	}
	return nil
}

func (r *memOrderRepo) UpdateStatusIf(_ context.Context, orderNo string, from, to domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNo]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (r *memOrderRepo) ListPendingOlderThan(_ context.Context, cutoff time.Time) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status == domain.StatusPending && !o.CreatedAt.After(cutoff) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListByCreateTimeDesc(_ context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memOrderRepo) status(orderNo string) domain.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderNo].Status
}

// --- in-memory refund repo ---

type memRefundRepo struct {
	mu      sync.Mutex
	refunds map[string]*domain.Refund
}

func newMemRefundRepo() *memRefundRepo {
	return &memRefundRepo{refunds: make(map[string]*domain.Refund)}
}

func (r *memRefundRepo) Create(_ context.Context, rf *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rf
	r.refunds[rf.RefundNo] = &cp
	return nil
}

func (r *memRefundRepo) GetByRefundNo(_ context.Context, refundNo string) (*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rf, ok := r.refunds[refundNo]
	if !ok {
		return nil, nil
	}
	cp := *rf
	return &cp, nil
}

func (r *memRefundRepo) ApplyGatewayResult(_ context.Context, refundNo string, res domain.GatewayRefundResult, channel domain.RefundChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rf, ok := r.refunds[refundNo]
	if !ok {
		return ErrRefundNotFound
	}
	rf.GatewayRefundID = res.GatewayRefundID
	rf.Status = res.Status
	rf.RefundedFee = res.RefundedFee
	switch channel {
	case domain.ChannelApplyResponse:
		rf.ContentReturn = res.RawBody
	case domain.ChannelNotifyCallback:
		rf.ContentNotify = res.RawBody
	}
	return nil
}

func (r *memRefundRepo) ListUnsettledOlderThan(_ context.Context, cutoff time.Time) ([]*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Refund
	for _, rf := range r.refunds {
		if rf.Status != domain.RefundSuccess && rf.Status != domain.RefundAbnormal && !rf.CreatedAt.After(cutoff) {
			cp := *rf
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- in-memory ledger ---

type memLedger struct {
	mu      sync.Mutex
	entries []*domain.PaymentLedgerEntry
}

func (l *memLedger) Create(_ context.Context, e *domain.PaymentLedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *e
	l.entries = append(l.entries, &cp)
	return nil
}

func (l *memLedger) countFor(orderNo string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.OrderNo == orderNo {
			n++
		}
	}
	return n
}

// --- in-memory product repo ---

type memProductRepo struct {
	products map[int64]*domain.Product
}

func (r *memProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// --- fake gateway ---

type fakeGateway struct {
	mu sync.Mutex

	codeURL   string
	intentErr error

	queryOrderResp *GatewayOrder
	queryOrderErr  error

	closeErr error

	refundBody string
	refundErr  error

	queryRefundResp *GatewayRefund
	queryRefundErr  error

	intentCalls      int
	queryOrderCalls  int
	closeCalls       int
	refundCalls      int
	queryRefundCalls int
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, _ *domain.Order) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intentCalls++
	if g.intentErr != nil {
		return "", g.intentErr
	}
	return g.codeURL, nil
}

func (g *fakeGateway) QueryOrder(_ context.Context, _ string) (*GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryOrderCalls++
	if g.queryOrderErr != nil {
		return nil, g.queryOrderErr
	}
	return g.queryOrderResp, nil
}

func (g *fakeGateway) CloseOrder(_ context.Context, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeCalls++
	return g.closeErr
}

func (g *fakeGateway) CreateRefund(_ context.Context, _ *domain.Refund) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	if g.refundErr != nil {
		return "", g.refundErr
	}
	return g.refundBody, nil
}

func (g *fakeGateway) QueryRefund(_ context.Context, _ string) (*GatewayRefund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryRefundCalls++
	if g.queryRefundErr != nil {
		return nil, g.queryRefundErr
	}
	return g.queryRefundResp, nil
}

func (g *fakeGateway) closed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closeCalls
}

// --- fake publisher / cache ---

type memPublisher struct {
	mu       sync.Mutex
	payments []PaymentConfirmedMsg
	refunds  []RefundFinishedMsg
}

func (p *memPublisher) PublishPaymentConfirmed(_ context.Context, ev PaymentConfirmedMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments = append(p.payments, ev)
	return nil
}

func (p *memPublisher) PublishRefundFinished(_ context.Context, ev RefundFinishedMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunds = append(p.refunds, ev)
	return nil
}

func (p *memPublisher) paymentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payments)
}

type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache { return &memCache{m: make(map[string]string)} }

func (c *memCache) SetStatus(_ context.Context, orderNo, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[orderNo] = status
	return nil
}

func (c *memCache) GetStatus(_ context.Context, orderNo string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[orderNo]
	return v, ok, nil
}
