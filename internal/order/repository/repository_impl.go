package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/order/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) CreateTx(tx *gorm.DB, order *domain.Order) error {
	return tx.Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Tracking", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindBySession(ctx context.Context, sessionID string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("session_id = ?", sessionID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) List(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) FindForUpdate(tx *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order domain.Order
	err := tx.Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) UpdateStatusTx(tx *gorm.DB, id snowflake.ID, status string) error {
	res := tx.Exec(
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *repo) AppendTrackingTx(tx *gorm.DB, event *domain.TrackingEvent) error {
	return tx.Create(event).Error
}

func (r *repo) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}

	err := r.db.WithContext(ctx).Model(&domain.Order{}).Count(&stats.TotalOrders).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status != ?`,
		domain.StatusCancelled,
	).Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count FROM orders GROUP BY status ORDER BY status`,
	).Scan(&stats.StatusCounts).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
