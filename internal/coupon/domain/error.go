package domain

import "errors"

var (
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponExists    = errors.New("coupon already exists")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	ErrInvalidCoupon   = errors.New("invalid coupon definition")
)
