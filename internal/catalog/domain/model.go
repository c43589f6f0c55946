// Package domain contains core types for the product catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Product is a catalog item. Price is in minor currency units.
type Product struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Brand       string       `gorm:"type:text" json:"brand"`
	Category    string       `gorm:"type:text;index" json:"category"`
	FrameShape  string       `gorm:"type:text" json:"frame_shape"`
	FrameColor  string       `gorm:"type:text" json:"frame_color"`
	ImageURL    string       `gorm:"type:text" json:"image_url"`
	Price       int64        `gorm:"not null" json:"price"`
	Stock       int          `gorm:"not null;default:0" json:"stock"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// ListFilter narrows product listings.
type ListFilter struct {
	Category string
	Search   string
}
