package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/coupon/domain"
	"github.com/framekart/commerce/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) Create(ctx context.Context, coupon *domain.Coupon) error {
	err := r.db.WithContext(ctx).Create(coupon).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrCouponExists
	}
	return err
}

func (r *repo) List(ctx context.Context) ([]domain.Coupon, error) {
	var coupons []domain.Coupon
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *repo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", domain.CanonicalCode(code)).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repo) SetActive(ctx context.Context, id snowflake.ID, active bool) error {
	tx := r.db.WithContext(ctx).Model(&domain.Coupon{}).Where("id = ?", id).Update("is_active", active)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (r *repo) RedeemTx(tx *gorm.DB, code string) error {
	res := tx.Exec(
		`UPDATE coupons
		 SET used_count = used_count + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE code = ? AND (usage_limit IS NULL OR used_count < usage_limit)`,
		domain.CanonicalCode(code),
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCouponExhausted
	}
	return nil
}
