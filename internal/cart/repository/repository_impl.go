package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/cart/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Upsert(ctx context.Context, item *domain.CartItem) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE cart_items SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND product_id = ?`,
		item.Quantity, item.UserID, item.ProductID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repo) UpdateQuantity(ctx context.Context, userID, productID snowflake.ID, quantity int) error {
	tx := r.db.WithContext(ctx).Model(&domain.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *repo) Remove(ctx context.Context, userID, productID snowflake.ID) error {
	tx := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.CartItem{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *repo) Clear(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error
}

func (r *repo) ListTx(tx *gorm.DB, userID snowflake.ID) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := tx.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ClearTx(tx *gorm.DB, userID snowflake.ID) error {
	return tx.Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error
}
