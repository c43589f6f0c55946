package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/cache"
	"github.com/framekart/commerce/internal/catalog/domain"
	"go.uber.org/zap"
)

const productCachePrefix = "products:"

type Service interface {
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error)
	Get(ctx context.Context, id snowflake.ID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

type service struct {
	log   *zap.Logger
	repo  domain.Repository
	cache *cache.Cache
	genID *snowflake.Node
}

func New(log *zap.Logger, repo domain.Repository, c *cache.Cache, genID *snowflake.Node) Service {
	return &service{
		log:   log.Named("catalog.service"),
		repo:  repo,
		cache: c,
		genID: genID,
	}
}

func (s *service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error) {
	key := listCacheKey(filter)

	var cached []domain.Product
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, products, cache.DefaultProductTTL)
	return products, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.ID = s.genID.Generate()
	if product.Stock < 0 {
		product.Stock = 0
	}
	product.IsActive = true

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

func (s *service) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repo.FindByID(ctx, product.ID)
}

func (s *service) Delete(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	s.cache.DeletePattern(ctx, productCachePrefix+"*")
}

func listCacheKey(filter domain.ListFilter) string {
	category := strings.TrimSpace(filter.Category)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if category == "" && search == "" {
		return productCachePrefix + "all"
	}
	return fmt.Sprintf("%slist:%s:%s", productCachePrefix, category, search)
}
