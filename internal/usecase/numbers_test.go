package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberGeneration(t *testing.T) {
	orderNo := NewOrderNo()
	refundNo := NewRefundNo()

	assert.True(t, strings.HasPrefix(orderNo, "ORDER_"))
	assert.True(t, strings.HasPrefix(refundNo, "REFUND_"))

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		no := NewOrderNo()
		_, dup := seen[no]
		assert.False(t, dup, "duplicate order no %s", no)
		seen[no] = struct{}{}
	}
}
