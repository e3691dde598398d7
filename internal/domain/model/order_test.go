package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_IsValid(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusPendingPayment,
		OrderStatusPaid,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusExpired,
	} {
		assert.True(t, s.IsValid(), "status %s", s)
	}

	assert.False(t, OrderStatus("XXX").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusPendingPayment, OrderStatusPaid, true},
		{OrderStatusPendingPayment, OrderStatusCancelled, true},
		{OrderStatusPendingPayment, OrderStatusExpired, true},
		{OrderStatusPendingPayment, OrderStatusShipped, false},
		{OrderStatusPendingPayment, OrderStatusDelivered, false},

		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusExpired, false},
		{OrderStatusPaid, OrderStatusPendingPayment, false},

		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},

		// 終端からはどこへも行けない
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusPendingPayment, false},
		{OrderStatusExpired, OrderStatusPendingPayment, false},

		// 同じステータスへの遷移も拒否
		{OrderStatusPaid, OrderStatusPaid, false},
		{OrderStatusPendingPayment, OrderStatusPendingPayment, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestOrderStatus_CanCancel(t *testing.T) {
	assert.True(t, OrderStatusPendingPayment.CanCancel())
	assert.True(t, OrderStatusPaid.CanCancel())

	assert.False(t, OrderStatusShipped.CanCancel())
	assert.False(t, OrderStatusDelivered.CanCancel())
	assert.False(t, OrderStatusCancelled.CanCancel())
	assert.False(t, OrderStatusExpired.CanCancel())
}

func TestRestocksOnEnter(t *testing.T) {
	assert.True(t, RestocksOnEnter(OrderStatusCancelled))
	assert.True(t, RestocksOnEnter(OrderStatusExpired))

	assert.False(t, RestocksOnEnter(OrderStatusPaid))
	assert.False(t, RestocksOnEnter(OrderStatusShipped))
	assert.False(t, RestocksOnEnter(OrderStatusDelivered))
}
