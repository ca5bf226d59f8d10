package http

import (
	"github.com/aq2208/payment-api/internal/adapter/http/middleware"
	"github.com/aq2208/payment-api/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(ph *PaymentHandler, oh *OrderHandler, nh *NotifyHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	// Gateway callbacks authenticate by signature, not by bearer token.
	wx := r.Group("/api/wx-pay")
	{
		wx.POST("/native/notify", nh.PaymentNotify)
		wx.POST("/refunds/notify", nh.RefundNotify)

		wx.POST("/native/:productId", authz.Require("payments.write"), ph.NativePay)
		wx.POST("/refunds/:orderNo", authz.Require("payments.write"), ph.Refund)
	}

	oi := r.Group("/api/order-info")
	{
		oi.GET("/list", authz.Require("payments.read"), oh.List)
		oi.GET("/query-order-status/:orderNo", authz.Require("payments.read"), oh.QueryStatus)
		oi.POST("/cancel/:orderNo", authz.Require("payments.write"), oh.Cancel)
	}

	return r
}
