package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// CreateTx persists an order with its item snapshots and initial
	// tracking entry inside the materialization transaction.
	CreateTx(tx *gorm.DB, order *Order) error

	FindByID(ctx context.Context, id snowflake.ID) (*Order, error)
	FindBySession(ctx context.Context, sessionID string) (*Order, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]Order, error)
	List(ctx context.Context) ([]Order, error)

	// FindForUpdate re-reads an order under a row lock inside tx.
	FindForUpdate(tx *gorm.DB, id snowflake.ID) (*Order, error)
	UpdateStatusTx(tx *gorm.DB, id snowflake.ID, status string) error
	AppendTrackingTx(tx *gorm.DB, event *TrackingEvent) error

	Stats(ctx context.Context) (*Stats, error)
}
