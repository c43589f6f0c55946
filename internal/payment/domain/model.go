// Package domain contains checkout session records and the gateway port
// that payment providers plug into.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Normalized session statuses. Gateway adapters map provider specific
// states onto these before anything else sees them.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// CheckoutSession tracks one payment attempt from session creation to
// order materialization. OrderID is written at most once. A session with
// a non-nil OrderID has already produced its order and every later
// webhook or poll for it is a no-op.
type CheckoutSession struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	SessionID   string            `gorm:"type:text;not null;uniqueIndex" json:"session_id"`
	Provider    string            `gorm:"type:text;not null" json:"provider"`
	UserID      snowflake.ID      `gorm:"not null;index" json:"user_id"`
	Amount      int64             `gorm:"not null" json:"amount"`
	Currency    string            `gorm:"type:text;not null" json:"currency"`
	CouponCode  *string           `gorm:"type:text" json:"coupon_code,omitempty"`
	Status      string            `gorm:"type:text;not null" json:"status"`
	// ProviderStatus keeps the gateway's own wording for audits; only
	// Status drives behavior.
	ProviderStatus  string        `gorm:"type:text" json:"provider_status,omitempty"`
	ShippingAddress string        `gorm:"type:text" json:"shipping_address,omitempty"`
	OrderID         *snowflake.ID `json:"order_id,omitempty"`
	CheckoutURL string            `gorm:"type:text" json:"checkout_url,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CheckoutSession) TableName() string { return "checkout_sessions" }

// Attached reports whether the session already produced an order.
func (s *CheckoutSession) Attached() bool {
	return s != nil && s.OrderID != nil
}
