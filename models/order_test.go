package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
	}{
		{"pending", true},
		{"confirmed", true},
		{"preparing", true},
		{"on_the_way", true},
		{"delivered", true},
		{"cancelled", true},
		{"shipped", false},
		{"", false},
		{"PENDING", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			status, ok := ParseOrderStatus(tt.raw)
			assert.Equal(t, tt.valid, ok)
			if ok {
				assert.Equal(t, OrderStatus(tt.raw), status)
			}
		})
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to confirmed", OrderStatusPending, OrderStatusConfirmed, true},
		{"confirmed to preparing", OrderStatusConfirmed, OrderStatusPreparing, true},
		{"preparing to on the way", OrderStatusPreparing, OrderStatusOnTheWay, true},
		{"on the way to delivered", OrderStatusOnTheWay, OrderStatusDelivered, true},
		{"skip forward", OrderStatusPending, OrderStatusPreparing, true},
		{"cancel pending", OrderStatusPending, OrderStatusCancelled, true},
		{"cancel on the way", OrderStatusOnTheWay, OrderStatusCancelled, true},
		{"backwards", OrderStatusPreparing, OrderStatusConfirmed, false},
		{"same status", OrderStatusConfirmed, OrderStatusConfirmed, false},
		{"back to pending", OrderStatusConfirmed, OrderStatusPending, false},
		{"from delivered", OrderStatusDelivered, OrderStatusCancelled, false},
		{"from cancelled", OrderStatusCancelled, OrderStatusPending, false},
		{"to unknown", OrderStatusPending, OrderStatus("shipped"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusOnTheWay.IsTerminal())
}
