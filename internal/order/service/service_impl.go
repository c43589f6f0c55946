package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/cache"
	"github.com/framekart/commerce/internal/clock"
	"github.com/framekart/commerce/internal/order/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)

	// UpdateStatus moves an order through the fulfillment machine and
	// appends a tracking entry. Illegal moves report
	// ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id snowflake.ID, status, location, note string) (*domain.Order, error)

	Stats(ctx context.Context) (*domain.Stats, error)
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	cache *cache.Cache
	genID *snowflake.Node
	clock clock.Clock
}

func New(
	db *gorm.DB,
	log *zap.Logger,
	repo domain.Repository,
	cacheStore *cache.Cache,
	genID *snowflake.Node,
	clk clock.Clock,
) Service {
	return &service{
		db:    db,
		log:   log.Named("order.service"),
		repo:  repo,
		cache: cacheStore,
		genID: genID,
		clock: clk,
	}
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	key := orderCacheKey(id)

	var cached domain.Order
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, order, cache.DefaultOrderTTL)
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, id snowflake.ID, status, location, note string) (*domain.Order, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindForUpdate(tx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransition(order.Status, status) {
			return domain.ErrInvalidTransition
		}
		if err := s.repo.UpdateStatusTx(tx, id, status); err != nil {
			return err
		}
		return s.repo.AppendTrackingTx(tx, &domain.TrackingEvent{
			ID:        s.genID.Generate(),
			OrderID:   id,
			Status:    status,
			Location:  location,
			Note:      note,
			CreatedAt: s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, orderCacheKey(id))
	s.log.Info("order status updated",
		zap.String("order_id", id.String()),
		zap.String("status", status),
	)
	return s.repo.FindByID(ctx, id)
}

func (s *service) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.repo.Stats(ctx)
}

func orderCacheKey(id snowflake.ID) string {
	return fmt.Sprintf("orders:item:%s", id)
}
