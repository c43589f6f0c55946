package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, coupon *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Coupon, error)
	SetActive(ctx context.Context, id snowflake.ID, active bool) error

	// RedeemTx increments used_count inside an order materialization
	// transaction. The update is conditional on the usage limit so the
	// counter can never exceed it, whatever the concurrency.
	RedeemTx(tx *gorm.DB, code string) error
}
