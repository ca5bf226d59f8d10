package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrRefundNotFound  = errors.New("refund not found")
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidState means the operation is not legal in the record's
	// current status (e.g. refunding an unpaid order). Surfaced to the
	// caller, never retried.
	ErrInvalidState = errors.New("operation not valid in current order state")
)

// GatewayError is a non-2xx or malformed gateway response. Transient:
// reconciliation or the gateway's own redelivery retries the work, but
// user-initiated actions propagate it to the caller.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Body)
}
