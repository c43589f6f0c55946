// Package domain contains core types for the shopping cart.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/framekart/commerce/internal/catalog/domain"
)

// CartItem stores one product line in a user's cart.
type CartItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID snowflake.ID `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int          `gorm:"not null" json:"quantity"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CartItem) TableName() string { return "cart_items" }

// Line is a cart item joined with its product.
type Line struct {
	Product  catalogdomain.Product `json:"product"`
	Quantity int                   `json:"quantity"`
}

func (l Line) Total() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Cart is the priced view returned to clients.
type Cart struct {
	Lines []Line `json:"items"`
	Total int64  `json:"total"`
}
