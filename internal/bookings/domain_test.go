package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"PAYMENT_PENDING", "PAYMENT_COMPLETED", "PAYMENT_REJECTED", "CANCELLED"} {
		status, ok := ParseStatus(valid)
		assert.True(t, ok, valid)
		assert.Equal(t, Status(valid), status)
	}

	for _, invalid := range []string{"", "pending", "PAID", "payment_pending"} {
		_, ok := ParseStatus(invalid)
		assert.False(t, ok, invalid)
	}
}
