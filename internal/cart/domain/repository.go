package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListByUser(ctx context.Context, userID snowflake.ID) ([]CartItem, error)
	Upsert(ctx context.Context, item *CartItem) error
	UpdateQuantity(ctx context.Context, userID, productID snowflake.ID, quantity int) error
	Remove(ctx context.Context, userID, productID snowflake.ID) error
	Clear(ctx context.Context, userID snowflake.ID) error

	// ListTx reads the cart inside an order materialization transaction.
	ListTx(tx *gorm.DB, userID snowflake.ID) ([]CartItem, error)
	// ClearTx empties the cart inside an order materialization transaction.
	ClearTx(tx *gorm.DB, userID snowflake.ID) error
}
