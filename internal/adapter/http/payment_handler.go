package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aq2208/payment-api/internal/logging"
	"github.com/aq2208/payment-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes the pay and refund entry points.
type PaymentHandler struct {
	create *usecase.CreateOrder
	refund *usecase.RequestRefund
}

func NewPaymentHandler(create *usecase.CreateOrder, refund *usecase.RequestRefund) *PaymentHandler {
	return &PaymentHandler{create: create, refund: refund}
}

// NativePay handler: create (or reuse) an order and return the QR payload.
func (h *PaymentHandler) NativePay(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_product_id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	ctx = logging.WithCtx(ctx, logging.From(c))

	out, err := h.create.Execute(ctx, productID)
	if err != nil {
		status := http.StatusInternalServerError
		var ge *usecase.GatewayError
		switch {
		case errors.Is(err, usecase.ErrProductNotFound):
			status = http.StatusNotFound
		case errors.As(err, &ge):
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderNo": out.OrderNo,
		"codeUrl": out.CodeURL,
	})
}

type refundReq struct {
	Reason string `json:"reason" binding:"required"`
}

// Refund handler: open a full refund against a paid order.
func (h *PaymentHandler) Refund(c *gin.Context) {
	orderNo := c.Param("orderNo")

	var req refundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	ctx = logging.WithCtx(ctx, logging.From(c))

	refund, err := h.refund.Execute(ctx, orderNo, req.Reason)
	if err != nil {
		status := http.StatusInternalServerError
		var ge *usecase.GatewayError
		switch {
		case errors.Is(err, usecase.ErrOrderNotFound):
			status = http.StatusNotFound
		case errors.Is(err, usecase.ErrInvalidState):
			status = http.StatusConflict
		case errors.As(err, &ge):
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refundNo":  refund.RefundNo,
		"orderNo":   refund.OrderNo,
		"refundFee": refund.RefundFee,
	})
}
