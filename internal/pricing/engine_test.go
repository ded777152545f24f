package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/pricing"
)

func TestComputePercentageCoupon(t *testing.T) {
	t.Parallel()

	items := []pricing.Item{
		{Qty: 1, UnitPrice: 7999},
		{Qty: 1, UnitPrice: 4999},
	}
	coupon := &pricing.Discount{Kind: "percentage", Value: 1000}

	summary := pricing.Compute(items, coupon, 800, 0)
	require.Equal(t, pricing.Money(12998), summary.Subtotal)
	require.Equal(t, pricing.Money(1299), summary.Discount)
	require.Equal(t, pricing.Money(1039), summary.Tax)
	require.Equal(t, pricing.Money(0), summary.Shipping)
	require.Equal(t, pricing.Money(12738), summary.Total)
}

func TestComputeFixedCouponInvariantToSubtotal(t *testing.T) {
	t.Parallel()

	coupon := &pricing.Discount{Kind: "fixed", Value: 500}
	small := pricing.Compute([]pricing.Item{{Qty: 1, UnitPrice: 2000}}, coupon, 800, 0)
	large := pricing.Compute([]pricing.Item{{Qty: 4, UnitPrice: 2000}}, coupon, 800, 0)
	require.Equal(t, small.Discount, large.Discount)
}

func TestTaxComputedOnUndiscountedSubtotal(t *testing.T) {
	t.Parallel()

	items := []pricing.Item{{Qty: 2, UnitPrice: 5000}}
	without := pricing.Compute(items, nil, 800, 599)
	with := pricing.Compute(items, &pricing.Discount{Kind: "percentage", Value: 5000}, 800, 599)
	require.Equal(t, without.Tax, with.Tax)
	require.Equal(t, without.Total-with.Discount, with.Total)
}

func TestTotalClampsAtZero(t *testing.T) {
	t.Parallel()

	items := []pricing.Item{{Qty: 1, UnitPrice: 1000}}
	coupon := &pricing.Discount{Kind: "fixed", Value: 50_000}
	summary := pricing.Compute(items, coupon, 800, 500)
	require.Equal(t, pricing.Money(0), summary.Total)
}

func TestNegativeShippingAndQtyIgnored(t *testing.T) {
	t.Parallel()

	items := []pricing.Item{
		{Qty: -2, UnitPrice: 9999},
		{Qty: 3, UnitPrice: 1500},
	}
	summary := pricing.Compute(items, nil, 0, -100)
	require.Equal(t, pricing.Money(4500), summary.Subtotal)
	require.Equal(t, pricing.Money(0), summary.Shipping)
	require.Equal(t, pricing.Money(4500), summary.Total)
}
