package domain

import "time"

type RefundStatus string

const (
	RefundCreated    RefundStatus = "CREATED"
	RefundProcessing RefundStatus = "PROCESSING"
	RefundSuccess    RefundStatus = "SUCCESS"
	RefundAbnormal   RefundStatus = "ABNORMAL"
)

// RefundChannel identifies which leg of the gateway conversation a raw
// payload came from. The apply response and the notify callback are not
// guaranteed to carry the same fields, so they are stored separately.
type RefundChannel string

const (
	ChannelApplyResponse  RefundChannel = "APPLY_RESPONSE"
	ChannelNotifyCallback RefundChannel = "NOTIFY_CALLBACK"
)

// GatewayRefundResult carries the gateway-reported fields merged into a
// refund record by RefundRepo.ApplyGatewayResult.
type GatewayRefundResult struct {
	GatewayRefundID string
	Status          RefundStatus
	RefundedFee     int64
	RawBody         string
}

type Refund struct {
	RefundNo        string
	OrderNo         string // parent order, foreign reference only
	Reason          string
	TotalFee        int64 // parent order total
	RefundFee       int64 // requested amount, <= TotalFee
	RefundedFee     int64 // amount the gateway reports as actually refunded
	Status          RefundStatus
	GatewayRefundID string // empty until the gateway acknowledges
	ContentReturn   string // raw apply-response body, audit only
	ContentNotify   string // raw notify-callback body, audit only
	CreatedAt       time.Time
}
