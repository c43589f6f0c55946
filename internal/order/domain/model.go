// Package domain contains order records, frozen item snapshots and the
// fulfillment status machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusProcessing = "processing"
	StatusConfirmed  = "confirmed"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order is materialized exactly once per checkout session. Item rows
// freeze the product name and unit price at purchase time so later
// catalog edits never change what the customer sees.
type Order struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderNo       string          `gorm:"type:text;not null;uniqueIndex" json:"order_no"`
	UserID        snowflake.ID    `gorm:"not null;index" json:"user_id"`
	SessionID     string          `gorm:"type:text;not null;index" json:"session_id"`
	Provider      string          `gorm:"type:text;not null" json:"provider"`
	Status        string          `gorm:"type:text;not null" json:"status"`
	PaymentStatus string          `gorm:"type:text;not null" json:"payment_status"`
	Subtotal      int64           `gorm:"not null" json:"subtotal"`
	Discount      int64           `gorm:"not null;default:0" json:"discount"`
	CouponCode    *string         `gorm:"type:text" json:"coupon_code,omitempty"`
	Total         int64           `gorm:"not null" json:"total"`
	Currency      string          `gorm:"type:text;not null" json:"currency"`

	ShippingAddress string `gorm:"type:text" json:"shipping_address"`

	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	Tracking      []TrackingEvent `gorm:"foreignKey:OrderID" json:"tracking,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderItem is a frozen snapshot of one purchased product line.
type OrderItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID     snowflake.ID `gorm:"not null;index" json:"order_id"`
	ProductID   snowflake.ID `gorm:"not null" json:"product_id"`
	ProductName string       `gorm:"type:text;not null" json:"product_name"`
	Brand       string       `gorm:"type:text" json:"brand"`
	ImageURL    string       `gorm:"type:text" json:"image_url"`
	UnitPrice   int64        `gorm:"not null" json:"unit_price"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	LineTotal   int64        `gorm:"not null" json:"line_total"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }

// TrackingEvent is an append-only entry in an order's fulfillment
// history. Entries are never updated or deleted.
type TrackingEvent struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID `gorm:"not null;index" json:"order_id"`
	Status    string       `gorm:"type:text;not null" json:"status"`
	Location  string       `gorm:"type:text" json:"location"`
	Note      string       `gorm:"type:text" json:"note"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TrackingEvent) TableName() string { return "order_tracking_events" }

// IsTerminal reports whether no further transition is allowed.
func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

// CanTransition reports whether the fulfillment machine allows moving
// from one status to another. Forward moves go one step at a time and
// cancellation is allowed from any non-terminal status.
func CanTransition(from, to string) bool {
	if to == StatusCancelled {
		return !IsTerminal(from)
	}
	switch from {
	case StatusProcessing:
		return to == StatusConfirmed
	case StatusConfirmed:
		return to == StatusShipped
	case StatusShipped:
		return to == StatusDelivered
	default:
		return false
	}
}

// ValidStatus reports whether the value names a known fulfillment status.
func ValidStatus(status string) bool {
	switch status {
	case StatusProcessing, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// StatusCount is one row of the admin order breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Stats summarizes orders for the admin dashboard. Revenue counts only
// orders that were not cancelled.
type Stats struct {
	TotalOrders  int64         `json:"total_orders"`
	TotalRevenue int64         `json:"total_revenue"`
	StatusCounts []StatusCount `json:"status_counts"`
}
