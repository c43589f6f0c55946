package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/cart/domain"
	catalogdomain "github.com/framekart/commerce/internal/catalog/domain"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

type Service interface {
	Get(ctx context.Context, userID snowflake.ID) (*domain.Cart, error)
	Add(ctx context.Context, userID, productID snowflake.ID, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID snowflake.ID, quantity int) (*domain.Cart, error)
	Remove(ctx context.Context, userID, productID snowflake.ID) (*domain.Cart, error)
	Clear(ctx context.Context, userID snowflake.ID) error
}

type service struct {
	log     *zap.Logger
	repo    domain.Repository
	catalog catalogdomain.Repository
	genID   *snowflake.Node
}

func New(log *zap.Logger, repo domain.Repository, catalog catalogdomain.Repository, genID *snowflake.Node) Service {
	return &service{
		log:     log.Named("cart.service"),
		repo:    repo,
		catalog: catalog,
		genID:   genID,
	}
}

func (s *service) Get(ctx context.Context, userID snowflake.ID) (*domain.Cart, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, items)
}

func (s *service) Add(ctx context.Context, userID, productID snowflake.ID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		ID:        s.genID.Generate(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) UpdateQuantity(ctx context.Context, userID, productID snowflake.ID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		if err := s.repo.Remove(ctx, userID, productID); err != nil {
			return nil, err
		}
		return s.Get(ctx, userID)
	}
	if err := s.repo.UpdateQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, productID snowflake.ID) (*domain.Cart, error) {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID snowflake.ID) error {
	return s.repo.Clear(ctx, userID)
}

// price joins cart rows with products. Lines whose product has been removed
// from the catalog are skipped rather than failing the whole cart.
func (s *service) price(ctx context.Context, items []domain.CartItem) (*domain.Cart, error) {
	cart := &domain.Cart{Lines: make([]domain.Line, 0, len(items))}
	for _, item := range items {
		product, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalogdomain.ErrProductNotFound) {
				s.log.Warn("cart references missing product",
					zap.String("product_id", item.ProductID.String()))
				continue
			}
			return nil, err
		}
		line := domain.Line{Product: *product, Quantity: item.Quantity}
		cart.Lines = append(cart.Lines, line)
		cart.Total += line.Total()
	}
	return cart, nil
}
