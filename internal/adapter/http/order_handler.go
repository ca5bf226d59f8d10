package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/logging"
	"github.com/aq2208/payment-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

// OrderHandler serves the merchant/front-end order views.
type OrderHandler struct {
	orders usecase.OrderRepo
	cache  usecase.StatusCache
	cancel *usecase.CancelOrder
}

func NewOrderHandler(orders usecase.OrderRepo, cache usecase.StatusCache, cancel *usecase.CancelOrder) *OrderHandler {
	return &OrderHandler{orders: orders, cache: cache, cancel: cancel}
}

func (h *OrderHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.orders.ListByCreateTimeDesc(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, gin.H{
			"orderNo":   o.OrderNo,
			"productId": o.ProductID,
			"title":     o.Title,
			"totalFee":  o.TotalFee,
			"status":    o.Status,
			"createdAt": o.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"list": out})
}

// QueryStatus is polled by the paying front end while the QR code is on
// screen. Cache first, repo as fallback.
func (h *OrderHandler) QueryStatus(c *gin.Context) {
	orderNo := c.Param("orderNo")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.cache != nil {
		if status, ok, err := h.cache.GetStatus(ctx, orderNo); err == nil && ok {
			c.JSON(http.StatusOK, gin.H{"orderNo": orderNo, "status": status})
			return
		}
	}

	order, err := h.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if h.cache != nil {
		_ = h.cache.SetStatus(ctx, orderNo, string(order.Status))
	}
	c.JSON(http.StatusOK, gin.H{"orderNo": orderNo, "status": order.Status})
}

// Cancel closes a pending order. A not-cancellable order is reported as
// a conflict with the observed status, not as a server error.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderNo := c.Param("orderNo")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	ctx = logging.WithCtx(ctx, logging.From(c))

	res, err := h.cancel.Execute(ctx, orderNo)
	if err != nil {
		status := http.StatusInternalServerError
		var ge *usecase.GatewayError
		switch {
		case errors.Is(err, usecase.ErrOrderNotFound):
			status = http.StatusNotFound
		case errors.As(err, &ge):
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if !res.Cancelled {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "not_cancellable",
			"status": res.Status,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderNo": orderNo, "status": domain.StatusCancelled})
}
