package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/clock"
	"github.com/framekart/commerce/internal/coupon/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	// Validate evaluates a code against a cart total without consuming it.
	Validate(ctx context.Context, code string, cartTotal int64) (*domain.Evaluation, error)
	// Redeem consumes one use inside the caller's transaction.
	Redeem(ctx context.Context, tx *gorm.DB, code string) error

	Create(ctx context.Context, coupon *domain.Coupon) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	SetActive(ctx context.Context, id snowflake.ID, active bool) error
}

type service struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(log *zap.Logger, repo domain.Repository, genID *snowflake.Node, clk clock.Clock) Service {
	return &service{
		log:   log.Named("coupon.service"),
		repo:  repo,
		genID: genID,
		clock: clk,
	}
}

func (s *service) Validate(ctx context.Context, code string, cartTotal int64) (*domain.Evaluation, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	eval := domain.Evaluate(coupon, cartTotal, s.clock.Now())
	return &eval, nil
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string) error {
	_ = ctx
	return s.repo.RedeemTx(tx, code)
}

func (s *service) Create(ctx context.Context, coupon *domain.Coupon) (*domain.Coupon, error) {
	coupon.Code = domain.CanonicalCode(coupon.Code)
	if coupon.Code == "" {
		return nil, domain.ErrInvalidCoupon
	}
	switch coupon.DiscountType {
	case domain.DiscountPercentage:
		if coupon.DiscountValue <= 0 || coupon.DiscountValue > 100 {
			return nil, domain.ErrInvalidCoupon
		}
	case domain.DiscountFixed:
		if coupon.DiscountValue <= 0 {
			return nil, domain.ErrInvalidCoupon
		}
	default:
		return nil, domain.ErrInvalidCoupon
	}
	if coupon.ValidUntil.Before(coupon.ValidFrom) {
		return nil, domain.ErrInvalidCoupon
	}
	if coupon.UsageLimit != nil && *coupon.UsageLimit <= 0 {
		return nil, domain.ErrInvalidCoupon
	}

	coupon.ID = s.genID.Generate()
	coupon.UsedCount = 0
	coupon.IsActive = true

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	s.log.Info("coupon created",
		zap.String("code", coupon.Code),
		zap.String("discount_type", coupon.DiscountType),
	)
	return coupon, nil
}

func (s *service) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) SetActive(ctx context.Context, id snowflake.ID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}
