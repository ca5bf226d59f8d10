package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aq2208/payment-api/internal/adapter/gateway"
	"github.com/aq2208/payment-api/internal/adapter/observ"
	"github.com/aq2208/payment-api/internal/logging"
	"github.com/aq2208/payment-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

// NotifyHandler receives the gateway's asynchronous callbacks.
// Answering anything but success makes the gateway redeliver, so
// duplicates and races are acknowledged as success while verification
// failures and processing errors are answered as failure.
type NotifyHandler struct {
	opener    *gateway.NotificationOpener
	processor *usecase.NotificationProcessor
}

func NewNotifyHandler(opener *gateway.NotificationOpener, processor *usecase.NotificationProcessor) *NotifyHandler {
	return &NotifyHandler{opener: opener, processor: processor}
}

func (h *NotifyHandler) PaymentNotify(c *gin.Context) {
	h.handle(c, "payment", h.processor.ProcessPaymentNotification)
}

func (h *NotifyHandler) RefundNotify(c *gin.Context) {
	h.handle(c, "refund", h.processor.ProcessRefundNotification)
}

func (h *NotifyHandler) handle(c *gin.Context, kind string, process func(context.Context, []byte) (usecase.NotifyOutcome, error)) {
	l := logging.From(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		observ.NotificationsTotal.WithLabelValues(kind, "rejected").Inc()
		answerFail(c, "unreadable body")
		return
	}

	plaintext, notifyID, err := h.opener.VerifyAndDecrypt(c.Request.Header, body)
	if err != nil {
		l.Error("notification rejected", "kind", kind, "err", err)
		observ.NotificationsTotal.WithLabelValues(kind, "rejected").Inc()
		answerFail(c, "signature verification failed")
		return
	}
	l = l.With("notify_id", notifyID, "kind", kind)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()
	ctx = logging.WithCtx(ctx, l)

	outcome, err := process(ctx, plaintext)
	if err != nil {
		l.Error("notification processing failed", "err", err)
		observ.NotificationsTotal.WithLabelValues(kind, "error").Inc()
		answerFail(c, "processing failed")
		return
	}
	observ.NotificationsTotal.WithLabelValues(kind, string(outcome)).Inc()

	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "OK"})
}

func answerFail(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{"code": "ERROR", "message": msg})
}
