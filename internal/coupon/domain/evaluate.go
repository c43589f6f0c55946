package domain

import "time"

// Reasons returned for invalid evaluations.
const (
	ReasonInactive    = "coupon_inactive"
	ReasonNotStarted  = "coupon_not_started"
	ReasonExpired     = "coupon_expired"
	ReasonUsageLimit  = "usage_limit_reached"
	ReasonMinPurchase = "min_purchase_not_met"
)

// Evaluation is the outcome of applying a coupon to a cart total.
type Evaluation struct {
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
	Discount   int64  `json:"discount"`
	FinalTotal int64  `json:"final_total"`
}

// Evaluate applies the coupon to cartTotal at the given instant. It performs
// no I/O and never mutates the coupon; redemption accounting happens only
// when an order is materialized.
//
// Checks run in a fixed order and the first failure wins: active, validity
// window, usage limit, minimum purchase.
func Evaluate(c *Coupon, cartTotal int64, now time.Time) Evaluation {
	invalid := func(reason string) Evaluation {
		return Evaluation{Valid: false, Reason: reason, FinalTotal: cartTotal}
	}

	if !c.IsActive {
		return invalid(ReasonInactive)
	}
	if now.Before(c.ValidFrom) {
		return invalid(ReasonNotStarted)
	}
	if now.After(c.ValidUntil) {
		return invalid(ReasonExpired)
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return invalid(ReasonUsageLimit)
	}
	if cartTotal < c.MinPurchase {
		return invalid(ReasonMinPurchase)
	}

	discount := c.discountFor(cartTotal)
	final := cartTotal - discount
	if final < 0 {
		final = 0
	}

	return Evaluation{Valid: true, Discount: discount, FinalTotal: final}
}

func (c *Coupon) discountFor(cartTotal int64) int64 {
	switch c.DiscountType {
	case DiscountPercentage:
		discount := cartTotal * c.DiscountValue / 100
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
		return discount
	case DiscountFixed:
		if c.DiscountValue > cartTotal {
			return cartTotal
		}
		return c.DiscountValue
	default:
		return 0
	}
}
