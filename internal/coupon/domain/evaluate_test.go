package domain

import (
	"testing"
	"time"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func activeCoupon() *Coupon {
	return &Coupon{
		Code:          "SAVE20",
		DiscountType:  DiscountPercentage,
		DiscountValue: 20,
		IsActive:      true,
		ValidFrom:     time.Now().Add(-24 * time.Hour),
		ValidUntil:    time.Now().Add(24 * time.Hour),
	}
}

func TestEvaluatePercentage(t *testing.T) {
	now := time.Now()

	coupon := activeCoupon()
	eval := Evaluate(coupon, 10000, now)
	if !eval.Valid {
		t.Fatalf("expected valid evaluation, got reason %s", eval.Reason)
	}
	if eval.Discount != 2000 {
		t.Fatalf("expected discount 2000, got %d", eval.Discount)
	}
	if eval.FinalTotal != 8000 {
		t.Fatalf("expected final total 8000, got %d", eval.FinalTotal)
	}

	coupon.MaxDiscount = int64Ptr(1500)
	eval = Evaluate(coupon, 10000, now)
	if eval.Discount != 1500 {
		t.Fatalf("expected capped discount 1500, got %d", eval.Discount)
	}
	if eval.FinalTotal != 8500 {
		t.Fatalf("expected final total 8500, got %d", eval.FinalTotal)
	}
}

func TestEvaluateFixed(t *testing.T) {
	now := time.Now()
	coupon := activeCoupon()
	coupon.DiscountType = DiscountFixed
	coupon.DiscountValue = 10000

	// A fixed discount larger than the cart clamps to the cart total.
	eval := Evaluate(coupon, 5000, now)
	if !eval.Valid {
		t.Fatalf("expected valid evaluation, got reason %s", eval.Reason)
	}
	if eval.Discount != 5000 {
		t.Fatalf("expected clamped discount 5000, got %d", eval.Discount)
	}
	if eval.FinalTotal != 0 {
		t.Fatalf("expected final total 0, got %d", eval.FinalTotal)
	}

	coupon.DiscountValue = 1000
	eval = Evaluate(coupon, 5000, now)
	if eval.Discount != 1000 || eval.FinalTotal != 4000 {
		t.Fatalf("expected 1000 off 5000, got discount %d total %d", eval.Discount, eval.FinalTotal)
	}
}

func TestEvaluateRejections(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		mutate     func(*Coupon)
		cartTotal  int64
		wantReason string
	}{{
		name:       "inactive",
		mutate:     func(c *Coupon) { c.IsActive = false },
		cartTotal:  10000,
		wantReason: ReasonInactive,
	}, {
		name:       "not started",
		mutate:     func(c *Coupon) { c.ValidFrom = now.Add(time.Hour) },
		cartTotal:  10000,
		wantReason: ReasonNotStarted,
	}, {
		name:       "expired",
		mutate:     func(c *Coupon) { c.ValidUntil = now.Add(-time.Hour) },
		cartTotal:  10000,
		wantReason: ReasonExpired,
	}, {
		name: "usage limit reached",
		mutate: func(c *Coupon) {
			c.UsageLimit = intPtr(5)
			c.UsedCount = 5
		},
		cartTotal:  10000,
		wantReason: ReasonUsageLimit,
	}, {
		name:       "below minimum purchase",
		mutate:     func(c *Coupon) { c.MinPurchase = 20000 },
		cartTotal:  10000,
		wantReason: ReasonMinPurchase,
	}, {
		name: "inactive wins over expired",
		mutate: func(c *Coupon) {
			c.IsActive = false
			c.ValidUntil = now.Add(-time.Hour)
		},
		cartTotal:  10000,
		wantReason: ReasonInactive,
	}, {
		name: "expired wins over usage limit",
		mutate: func(c *Coupon) {
			c.ValidUntil = now.Add(-time.Hour)
			c.UsageLimit = intPtr(1)
			c.UsedCount = 1
		},
		cartTotal:  10000,
		wantReason: ReasonExpired,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon := activeCoupon()
			tt.mutate(coupon)

			eval := Evaluate(coupon, tt.cartTotal, now)
			if eval.Valid {
				t.Fatalf("expected invalid evaluation")
			}
			if eval.Reason != tt.wantReason {
				t.Fatalf("expected reason %s, got %s", tt.wantReason, eval.Reason)
			}
			if eval.Discount != 0 {
				t.Fatalf("expected zero discount, got %d", eval.Discount)
			}
			if eval.FinalTotal != tt.cartTotal {
				t.Fatalf("expected untouched total %d, got %d", tt.cartTotal, eval.FinalTotal)
			}
		})
	}
}

func TestEvaluateUnlimitedUsage(t *testing.T) {
	now := time.Now()
	coupon := activeCoupon()
	coupon.UsedCount = 1000000

	eval := Evaluate(coupon, 10000, now)
	if !eval.Valid {
		t.Fatalf("expected nil usage limit to mean unlimited, got reason %s", eval.Reason)
	}
}

func TestCanonicalCode(t *testing.T) {
	if got := CanonicalCode("  save20 "); got != "SAVE20" {
		t.Fatalf("expected SAVE20, got %s", got)
	}
}
