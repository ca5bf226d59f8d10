package domain

import "time"

type OrderStatus string

const (
	StatusPending          OrderStatus = "PENDING"
	StatusSuccess          OrderStatus = "SUCCESS"
	StatusCancelled        OrderStatus = "CANCELLED"
	StatusClosed           OrderStatus = "CLOSED"
	StatusRefundProcessing OrderStatus = "REFUND_PROCESSING"
	StatusRefundSuccess    OrderStatus = "REFUND_SUCCESS"
	StatusRefundAbnormal   OrderStatus = "REFUND_ABNORMAL"
)

// transitions is the full order status graph. PENDING is initial;
// everything except SUCCESS and REFUND_PROCESSING is terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:          {StatusSuccess, StatusCancelled, StatusClosed},
	StatusSuccess:          {StatusRefundProcessing},
	StatusRefundProcessing: {StatusRefundSuccess, StatusRefundAbnormal},
}

// CanTransition reports whether from -> to is a legal move in the graph.
func (from OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Refundable reports whether a refund may be opened against an order
// in this status. Only fully paid orders qualify.
func (s OrderStatus) Refundable() bool {
	return s == StatusSuccess
}

type Order struct {
	OrderNo   string
	ProductID int64
	Title     string
	TotalFee  int64 // minor currency units, immutable after creation
	Status    OrderStatus
	CodeURL   string // payment QR payload, set once the intent is created
	CreatedAt time.Time
}
