package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/payment/domain"
	pkgdb "github.com/framekart/commerce/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, session *domain.CheckoutSession) error {
	err := r.db.WithContext(ctx).Create(session).Error
	if pkgdb.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateSession
	}
	return err
}

func (r *repo) FindBySessionID(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	var session domain.CheckoutSession
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repo) UpdateStatus(ctx context.Context, sessionID, status, providerStatus string) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE checkout_sessions
		 SET status = ?, provider_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE session_id = ?`,
		status, providerStatus, sessionID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *repo) AttachOrderTx(tx *gorm.DB, sessionID string, orderID snowflake.ID) error {
	res := tx.Exec(
		`UPDATE checkout_sessions
		 SET order_id = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE session_id = ? AND order_id IS NULL`,
		orderID, domain.StatusPaid, sessionID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderAlreadyAttached
	}
	return nil
}
