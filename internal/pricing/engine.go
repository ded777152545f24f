package pricing

import "strings"

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Discount carries a coupon's resolved terms. Value is scaled by 100: minor
// units for "fixed" coupons, basis points for "percentage" coupons.
type Discount struct {
	Kind  string
	Value int64
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Discount Money
	Shipping Money
	Tax      Money
	Total    Money
}

// Compute calculates order totals. Tax applies to the undiscounted subtotal;
// the discount reduces only the final total. Reordering these steps changes
// the result, so the sequence is fixed.
func Compute(items []Item, coupon *Discount, taxBps int, shipping Money) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	if shipping < 0 {
		shipping = 0
	}
	discount := applyDiscount(subtotal, coupon)
	tax := (subtotal * Money(taxBps)) / 10000
	total := subtotal + shipping + tax - discount
	if total < 0 {
		// A discount larger than the whole order clamps to a free order
		// rather than a credit.
		total = 0
	}
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}

func applyDiscount(subtotal Money, coupon *Discount) Money {
	if coupon == nil || coupon.Value <= 0 {
		return 0
	}
	if strings.EqualFold(coupon.Kind, "percentage") {
		return (subtotal * coupon.Value) / 10000
	}
	return coupon.Value
}
