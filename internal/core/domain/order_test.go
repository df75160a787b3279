package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want OrderStatus
		ok   bool
	}{
		{"pending", OrderStatusPending, true},
		{"SHIPPED", OrderStatusShipped, true},
		{" Delivered ", OrderStatusDelivered, true},
		{"cancelled", OrderStatusCancelled, true},
		{"refunded", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrderStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusPaid))
	assert.True(t, OrderStatusShipped.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusPending))

	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPaid.IsTerminal())
}

func TestOrderItem_LineTotal(t *testing.T) {
	item := OrderItem{Quantity: 3, Price: decimal.RequireFromString("19.99")}
	assert.Equal(t, "59.97", item.LineTotal().StringFixed(2))
}

func TestIdentity(t *testing.T) {
	assert.True(t, Identity{UserID: 1, Role: RoleShopkeeper}.IsShopkeeper())
	assert.False(t, Identity{UserID: 1, Role: RoleShopkeeper}.IsDistributor())
	assert.False(t, Identity{UserID: 0, Role: RoleShopkeeper}.Valid())
	assert.False(t, Identity{UserID: 3, Role: "admin"}.Valid())
}
