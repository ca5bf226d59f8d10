package usecase

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Business identifiers correlate records with the gateway. They are
// distinct from storage ids and are assigned exactly once.

func NewOrderNo() string  { return "ORDER_" + numberSuffix() }
func NewRefundNo() string { return "REFUND_" + numberSuffix() }

func numberSuffix() string {
	u := strings.ReplaceAll(uuid.NewString(), "-", "")
	return time.Now().UTC().Format("20060102150405") + u[:10]
}
