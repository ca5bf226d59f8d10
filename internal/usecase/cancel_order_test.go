package usecase

import (
	"context"
	"testing"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelOrder_CancelsPending(t *testing.T) {
	orders := newMemOrderRepo()
	cache := newMemCache()
	seedOrder(t, orders, "ORDER_1", domain.StatusPending)

	gw := &fakeGateway{}
	uc := NewCancelOrder(orders, gw, cache)
	res, err := uc.Execute(testCtx(), "ORDER_1")

	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, domain.StatusCancelled, res.Status)
	assert.Equal(t, 1, gw.closed())
	assert.Equal(t, domain.StatusCancelled, orders.status("ORDER_1"))

	status, ok, err := cache.GetStatus(testCtx(), "ORDER_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, string(domain.StatusCancelled), status)
}

// Cancelling a paid order is refused without touching the gateway.
func TestCancelOrder_PaidOrderRefused(t *testing.T) {
	orders := newMemOrderRepo()
	seedOrder(t, orders, "ORDER_1", domain.StatusSuccess)

	gw := &fakeGateway{}
	uc := NewCancelOrder(orders, gw, nil)
	res, err := uc.Execute(testCtx(), "ORDER_1")

	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Zero(t, gw.closed())
	assert.Equal(t, domain.StatusSuccess, orders.status("ORDER_1"))
}

func TestCancelOrder_UnknownOrder(t *testing.T) {
	uc := NewCancelOrder(newMemOrderRepo(), &fakeGateway{}, nil)

	_, err := uc.Execute(testCtx(), "ORDER_MISSING")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// A payment landing between the status read and the guarded update makes
// the cancel report failure with the fresh status.
func TestCancelOrder_LostRaceReportsFreshStatus(t *testing.T) {
	orders := newMemOrderRepo()
	seedOrder(t, orders, "ORDER_1", domain.StatusPending)

	gw := &fakeGateway{}
	uc := NewCancelOrder(orders, &racingGateway{fakeGateway: gw, orders: orders, orderNo: "ORDER_1"}, nil)
	res, err := uc.Execute(testCtx(), "ORDER_1")

	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, domain.StatusSuccess, orders.status("ORDER_1"))
}

func TestCancelOrder_CreatedOrderAge(t *testing.T) {
	orders := newMemOrderRepo()
	require.NoError(t, orders.Create(testCtx(), &domain.Order{
		OrderNo:   "ORDER_1",
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}))

	uc := NewCancelOrder(orders, &fakeGateway{}, nil)
	res, err := uc.Execute(testCtx(), "ORDER_1")

	require.NoError(t, err)
	assert.True(t, res.Cancelled)
}

// racingGateway flips the order to SUCCESS while the close call is in
// flight, simulating a payment notification winning the race.
type racingGateway struct {
	*fakeGateway
	orders  *memOrderRepo
	orderNo string
}

func (g *racingGateway) CloseOrder(ctx context.Context, orderNo string) error {
	_, _ = g.orders.UpdateStatusIf(ctx, g.orderNo, domain.StatusPending, domain.StatusSuccess)
	return g.fakeGateway.CloseOrder(ctx, orderNo)
}
