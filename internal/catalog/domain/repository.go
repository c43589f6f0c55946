package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id snowflake.ID) error

	// FindForUpdate re-reads a product under a row lock inside tx.
	FindForUpdate(tx *gorm.DB, id snowflake.ID) (*Product, error)
	// DecrementStock conditionally reduces stock inside tx. Fails with
	// InsufficientStockError when fewer than qty units remain.
	DecrementStock(tx *gorm.DB, id snowflake.ID, qty int) error
}
