package domain

import "time"

// PaymentLedgerEntry is the append-only record of a confirmed payment.
// At most one entry exists per order number; the conditional status
// update in the processing paths gates the write.
type PaymentLedgerEntry struct {
	OrderNo       string
	TransactionID string
	TradeType     string
	TradeState    string
	PayerTotal    int64
	Content       string // raw decrypted payload
	CreatedAt     time.Time
}
