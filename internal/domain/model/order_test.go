package model

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackingRe = regexp.MustCompile(`^PS[A-Z0-9]{8}$`)

func TestNewTrackingNumber_Format(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tn, err := NewTrackingNumber()
		require.NoError(t, err)
		assert.Regexp(t, trackingRe, tn)
		seen[tn] = true
	}
	// 50回でほぼ重複しない
	assert.Greater(t, len(seen), 45)
}

func TestOrder_BeforeCreateKeepsExistingTrackingNumber(t *testing.T) {
	o := &Order{TrackingNumber: "PSFIXED001"}
	require.NoError(t, o.BeforeCreate(nil))
	assert.Equal(t, "PSFIXED001", o.TrackingNumber)

	o2 := &Order{}
	require.NoError(t, o2.BeforeCreate(nil))
	assert.Regexp(t, trackingRe, o2.TrackingNumber)
}

func TestOrderStatus_CanMoveTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPlaced, OrderStatusPacked, true},
		{OrderStatusPlaced, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusOutForDelivery, true},
		{OrderStatusShipped, OrderStatusPacked, false},
		{OrderStatusDelivered, OrderStatusPlaced, false},
		{OrderStatusPacked, OrderStatusPacked, false},
		{OrderStatusPlaced, OrderStatus("CANCELED"), false},
		{OrderStatus(""), OrderStatusPacked, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanMoveTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrder_Totals(t *testing.T) {
	o := Order{
		Discount: decimal.NewFromInt(10),
		Items: []OrderItem{
			{Price: decimal.RequireFromString("25.50"), Quantity: 2},
			{Price: decimal.RequireFromString("49.00"), Quantity: 1},
		},
	}

	assert.True(t, decimal.RequireFromString("100.00").Equal(o.TotalBeforeDiscount()))
	assert.True(t, decimal.RequireFromString("90.00").Equal(o.TotalCost()))
}
