package usecase

import (
	"encoding/json"
	"fmt"

	domain "github.com/aq2208/payment-api/internal/entity"
)

// Decrypted notification payloads, deserialized once at the boundary.
// Required fields are checked here so a missing key fails loudly
// instead of surfacing as a zero value deep in the processing path.

type PaymentNotification struct {
	OrderNo        string `json:"out_trade_no"`
	TransactionID  string `json:"transaction_id"`
	TradeType      string `json:"trade_type"`
	TradeState     string `json:"trade_state"`
	TradeStateDesc string `json:"trade_state_desc"`
	Amount         struct {
		Total      int64 `json:"total"`
		PayerTotal int64 `json:"payer_total"`
	} `json:"amount"`
}

func ParsePaymentNotification(plaintext []byte) (*PaymentNotification, error) {
	var n PaymentNotification
	if err := json.Unmarshal(plaintext, &n); err != nil {
		return nil, fmt.Errorf("decode payment notification: %w", err)
	}
	if n.OrderNo == "" {
		return nil, fmt.Errorf("payment notification missing out_trade_no")
	}
	return &n, nil
}

type RefundNotification struct {
	OrderNo      string `json:"out_trade_no"`
	RefundNo     string `json:"out_refund_no"`
	RefundID     string `json:"refund_id"`
	RefundStatus string `json:"refund_status"`
	Amount       struct {
		Refund      int64 `json:"refund"`
		PayerRefund int64 `json:"payer_refund"`
	} `json:"amount"`
}

func ParseRefundNotification(plaintext []byte) (*RefundNotification, error) {
	var n RefundNotification
	if err := json.Unmarshal(plaintext, &n); err != nil {
		return nil, fmt.Errorf("decode refund notification: %w", err)
	}
	if n.OrderNo == "" || n.RefundNo == "" {
		return nil, fmt.Errorf("refund notification missing out_trade_no or out_refund_no")
	}
	return &n, nil
}

// RefundApplyResponse is the body returned by the refund-apply call.
// The query-refund endpoint shares the same shape.
type RefundApplyResponse struct {
	OrderNo  string `json:"out_trade_no"`
	RefundNo string `json:"out_refund_no"`
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
	Amount   struct {
		Refund      int64 `json:"refund"`
		PayerRefund int64 `json:"payer_refund"`
	} `json:"amount"`
}

func ParseRefundApplyResponse(body []byte) (*RefundApplyResponse, error) {
	var r RefundApplyResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode refund response: %w", err)
	}
	if r.RefundNo == "" {
		return nil, fmt.Errorf("refund response missing out_refund_no")
	}
	return &r, nil
}

// mapRefundStatus folds gateway refund states into the local enum.
// Anything unrecognized stays PROCESSING so reconciliation keeps
// polling it instead of settling on a bogus terminal state.
func mapRefundStatus(s string) domain.RefundStatus {
	switch s {
	case RefundStateSuccess:
		return domain.RefundSuccess
	case RefundStateAbnormal:
		return domain.RefundAbnormal
	default:
		return domain.RefundProcessing
	}
}
