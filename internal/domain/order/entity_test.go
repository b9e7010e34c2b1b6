// internal/domain/order/entity_test.go
package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(PaymentMethodCash))
	assert.True(t, ValidPaymentMethod(PaymentMethodCard))
	assert.True(t, ValidPaymentMethod(PaymentMethodEWallet))
	assert.False(t, ValidPaymentMethod("barter"))
	assert.False(t, ValidPaymentMethod(""))
}

func TestCanBeCancelled(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPending}).CanBeCancelled())
	assert.True(t, (&Order{Status: StatusConfirmed}).CanBeCancelled())
	assert.False(t, (&Order{Status: StatusReadyForPickup}).CanBeCancelled())
	assert.False(t, (&Order{Status: StatusPickedUp}).CanBeCancelled())
	assert.False(t, (&Order{Status: StatusCancelled}).CanBeCancelled())
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPickedUp, false},
		{StatusConfirmed, StatusReadyForPickup, true},
		{StatusConfirmed, StatusPending, false},
		{StatusReadyForPickup, StatusPickedUp, true},
		{StatusPickedUp, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		o := &Order{Status: tt.from}
		assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestFormatOrderNumber(t *testing.T) {
	at := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "ORD-20260831-00042", FormatOrderNumber("ORD", 42, at))
}
