// Package domain contains the coupon model and the discount evaluator.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon is a discount code. Monetary fields are minor currency units.
// A nil UsageLimit means unlimited redemptions; MaxDiscount only applies to
// percentage coupons.
type Coupon struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Code          string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	DiscountType  string       `gorm:"type:text;not null" json:"discount_type"`
	DiscountValue int64        `gorm:"not null" json:"discount_value"`
	MinPurchase   int64        `gorm:"not null;default:0" json:"min_purchase"`
	MaxDiscount   *int64       `json:"max_discount,omitempty"`
	UsageLimit    *int         `json:"usage_limit,omitempty"`
	UsedCount     int          `gorm:"not null;default:0" json:"used_count"`
	ValidFrom     time.Time    `gorm:"not null" json:"valid_from"`
	ValidUntil    time.Time    `gorm:"not null" json:"valid_until"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Coupon) TableName() string { return "coupons" }

// CanonicalCode normalizes user input for lookup.
func CanonicalCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
