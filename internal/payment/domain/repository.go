package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Create persists a new session. A session_id collision reports
	// ErrDuplicateSession.
	Create(ctx context.Context, session *CheckoutSession) error
	FindBySessionID(ctx context.Context, sessionID string) (*CheckoutSession, error)
	UpdateStatus(ctx context.Context, sessionID, status, providerStatus string) error

	// AttachOrderTx sets order_id exactly once inside the order
	// materialization transaction. The update is conditional on
	// order_id still being NULL; a lost race reports
	// ErrOrderAlreadyAttached so the caller rolls back.
	AttachOrderTx(tx *gorm.DB, sessionID string, orderID snowflake.ID) error
}
