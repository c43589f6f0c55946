package repository

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/catalog/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (domain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(db), db, node
}

func seedProduct(t *testing.T, repo domain.Repository, node *snowflake.Node) *domain.Product {
	t.Helper()
	product := &domain.Product{
		ID:          node.Generate(),
		Name:        "Aviator Classic",
		Description: "Gold rim",
		Brand:       "Framekart",
		Category:    "sunglasses",
		FrameShape:  "aviator",
		FrameColor:  "gold",
		Price:       5000,
		Stock:       7,
		IsActive:    true,
	}
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

func TestUpdatePersistsZeroValues(t *testing.T) {
	repo, _, node := newTestRepo(t)
	ctx := context.Background()
	product := seedProduct(t, repo, node)

	// Selling out and clearing a field are both zero values; the
	// update must write them anyway.
	replacement := *product
	replacement.Stock = 0
	replacement.Description = ""
	require.NoError(t, repo.Update(ctx, &replacement))

	updated, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, "Aviator Classic", updated.Name)
}

func TestUpdateUnknownProduct(t *testing.T) {
	repo, _, node := newTestRepo(t)

	err := repo.Update(context.Background(), &domain.Product{
		ID:    node.Generate(),
		Name:  "Ghost",
		Price: 1000,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDecrementStockGuard(t *testing.T) {
	repo, db, node := newTestRepo(t)
	ctx := context.Background()
	product := seedProduct(t, repo, node)

	require.NoError(t, repo.DecrementStock(db, product.ID, 5))

	var insufficient *domain.InsufficientStockError
	err := repo.DecrementStock(db, product.ID, 5)
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, product.ID, insufficient.ProductID)

	updated, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stock)
}
