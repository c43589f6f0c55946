package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/framekart/commerce/internal/cart/domain"
	cartrepository "github.com/framekart/commerce/internal/cart/repository"
	catalogdomain "github.com/framekart/commerce/internal/catalog/domain"
	catalogrepository "github.com/framekart/commerce/internal/catalog/repository"
	"github.com/framekart/commerce/internal/clock"
	coupondomain "github.com/framekart/commerce/internal/coupon/domain"
	couponrepository "github.com/framekart/commerce/internal/coupon/repository"
	couponservice "github.com/framekart/commerce/internal/coupon/service"
	"github.com/framekart/commerce/internal/order/domain"
	orderrepository "github.com/framekart/commerce/internal/order/repository"
	paymentdomain "github.com/framekart/commerce/internal/payment/domain"
	paymentrepository "github.com/framekart/commerce/internal/payment/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type materializerFixture struct {
	db          *gorm.DB
	node        *snowflake.Node
	mat         *Materializer
	paymentRepo paymentdomain.Repository
}

func newMaterializerFixture(t *testing.T) *materializerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Product{},
		&cartdomain.CartItem{},
		&coupondomain.Coupon{},
		&paymentdomain.CheckoutSession{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.TrackingEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	logger := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	couponSvc := couponservice.New(logger, couponrepository.New(db), node, clk)
	paymentRepo := paymentrepository.New(db)

	mat := NewMaterializer(MaterializerParams{
		DB:          db,
		Log:         logger,
		GenID:       node,
		Clock:       clk,
		OrderRepo:   orderrepository.New(db),
		CartRepo:    cartrepository.New(db),
		CatalogRepo: catalogrepository.New(db),
		PaymentRepo: paymentRepo,
		CouponSvc:   couponSvc,
	})

	return &materializerFixture{db: db, node: node, mat: mat, paymentRepo: paymentRepo}
}

func (f *materializerFixture) seedProduct(t *testing.T, price int64, stock int) *catalogdomain.Product {
	t.Helper()
	product := &catalogdomain.Product{
		ID:       f.node.Generate(),
		Name:     "Aviator Classic",
		Brand:    "FrameKart",
		Category: "sunglasses",
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *materializerFixture) seedCartItem(t *testing.T, userID, productID snowflake.ID, qty int) {
	t.Helper()
	require.NoError(t, f.db.Create(&cartdomain.CartItem{
		ID:        f.node.Generate(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}).Error)
}

func (f *materializerFixture) seedSession(t *testing.T, userID snowflake.ID, sessionID string) {
	t.Helper()
	require.NoError(t, f.paymentRepo.Create(context.Background(), &paymentdomain.CheckoutSession{
		ID:        f.node.Generate(),
		SessionID: sessionID,
		Provider:  "stripe",
		UserID:    userID,
		Amount:    10000,
		Currency:  "INR",
		Status:    paymentdomain.StatusPending,
	}))
}

func TestMaterializeCreatesOrder(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	userID := f.node.Generate()
	product := f.seedProduct(t, 5000, 10)
	f.seedCartItem(t, userID, product.ID, 2)
	f.seedSession(t, userID, "cs_test_1")

	order, err := f.mat.Materialize(ctx, MaterializeInput{
		UserID:          userID,
		SessionID:       "cs_test_1",
		Provider:        "stripe",
		Currency:        "INR",
		ShippingAddress: "12 Marine Drive, Mumbai 400020",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusProcessing, order.Status)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "12 Marine Drive, Mumbai 400020", order.ShippingAddress)
	assert.EqualValues(t, 10000, order.Subtotal)
	assert.EqualValues(t, 10000, order.Total)
	assert.Regexp(t, `^FK-20260315-[0-9A-F]{8}$`, order.OrderNo)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Aviator Classic", order.Items[0].ProductName)
	assert.EqualValues(t, 5000, order.Items[0].UnitPrice)
	require.Len(t, order.Tracking, 1)
	assert.Equal(t, domain.StatusProcessing, order.Tracking[0].Status)

	var stocked catalogdomain.Product
	require.NoError(t, f.db.First(&stocked, "id = ?", product.ID).Error)
	assert.Equal(t, 8, stocked.Stock)

	var cartCount int64
	require.NoError(t, f.db.Model(&cartdomain.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.EqualValues(t, 0, cartCount)

	session, err := f.paymentRepo.FindBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	require.NotNil(t, session.OrderID)
	assert.Equal(t, order.ID, *session.OrderID)
	assert.Equal(t, paymentdomain.StatusPaid, session.Status)
}

func TestMaterializeAppliesCoupon(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	userID := f.node.Generate()
	product := f.seedProduct(t, 5000, 10)
	f.seedCartItem(t, userID, product.ID, 2)
	f.seedSession(t, userID, "cs_test_coupon")

	require.NoError(t, f.db.Create(&coupondomain.Coupon{
		ID:            f.node.Generate(),
		Code:          "SAVE20",
		DiscountType:  coupondomain.DiscountPercentage,
		DiscountValue: 20,
		IsActive:      true,
		ValidFrom:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:    time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}).Error)

	order, err := f.mat.Materialize(ctx, MaterializeInput{
		UserID:     userID,
		SessionID:  "cs_test_coupon",
		Provider:   "stripe",
		CouponCode: "save20",
		Currency:   "INR",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 10000, order.Subtotal)
	assert.EqualValues(t, 2000, order.Discount)
	assert.EqualValues(t, 8000, order.Total)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE20", *order.CouponCode)

	var coupon coupondomain.Coupon
	require.NoError(t, f.db.First(&coupon, "code = ?", "SAVE20").Error)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestMaterializeSkipsStaleCoupon(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	userID := f.node.Generate()
	product := f.seedProduct(t, 5000, 10)
	f.seedCartItem(t, userID, product.ID, 1)
	f.seedSession(t, userID, "cs_test_stale")

	// Deactivated between checkout and payment confirmation. The explicit
	// update is needed because gorm drops zero-valued fields with a
	// default tag on insert, so IsActive:false alone would store true.
	require.NoError(t, f.db.Create(&coupondomain.Coupon{
		ID:            f.node.Generate(),
		Code:          "SAVE20",
		DiscountType:  coupondomain.DiscountPercentage,
		DiscountValue: 20,
		IsActive:      false,
		ValidFrom:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:    time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}).Error)
	require.NoError(t, f.db.Model(&coupondomain.Coupon{}).
		Where("code = ?", "SAVE20").Update("is_active", false).Error)

	order, err := f.mat.Materialize(ctx, MaterializeInput{
		UserID:     userID,
		SessionID:  "cs_test_stale",
		Provider:   "stripe",
		CouponCode: "SAVE20",
		Currency:   "INR",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 0, order.Discount)
	assert.EqualValues(t, 5000, order.Total)
	assert.Nil(t, order.CouponCode)

	var coupon coupondomain.Coupon
	require.NoError(t, f.db.First(&coupon, "code = ?", "SAVE20").Error)
	assert.Equal(t, 0, coupon.UsedCount)
}

func TestMaterializeIsIdempotentPerSession(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	userID := f.node.Generate()
	product := f.seedProduct(t, 5000, 10)
	f.seedCartItem(t, userID, product.ID, 1)
	f.seedSession(t, userID, "cs_test_dup")

	input := MaterializeInput{
		UserID:    userID,
		SessionID: "cs_test_dup",
		Provider:  "stripe",
		Currency:  "INR",
	}

	first, err := f.mat.Materialize(ctx, input)
	require.NoError(t, err)

	// A second delivery for the same session finds items back in the
	// cart but must not produce a second order or touch stock again.
	f.seedCartItem(t, userID, product.ID, 1)

	_, err = f.mat.Materialize(ctx, input)
	require.ErrorIs(t, err, paymentdomain.ErrOrderAlreadyAttached)

	var orderCount int64
	require.NoError(t, f.db.Model(&domain.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)

	var stocked catalogdomain.Product
	require.NoError(t, f.db.First(&stocked, "id = ?", product.ID).Error)
	assert.Equal(t, 9, stocked.Stock, "rollback must restore the second decrement")

	session, err := f.paymentRepo.FindBySessionID(ctx, "cs_test_dup")
	require.NoError(t, err)
	require.NotNil(t, session.OrderID)
	assert.Equal(t, first.ID, *session.OrderID)
}

func TestMaterializeInsufficientStock(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	userID := f.node.Generate()
	product := f.seedProduct(t, 5000, 1)
	f.seedCartItem(t, userID, product.ID, 3)
	f.seedSession(t, userID, "cs_test_stock")

	_, err := f.mat.Materialize(ctx, MaterializeInput{
		UserID:    userID,
		SessionID: "cs_test_stock",
		Provider:  "stripe",
		Currency:  "INR",
	})

	var stockErr *catalogdomain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, product.ID, stockErr.ProductID)

	// Nothing committed: no order, cart intact, session unattached.
	var orderCount int64
	require.NoError(t, f.db.Model(&domain.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 0, orderCount)

	var cartCount int64
	require.NoError(t, f.db.Model(&cartdomain.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.EqualValues(t, 1, cartCount)

	session, err := f.paymentRepo.FindBySessionID(ctx, "cs_test_stock")
	require.NoError(t, err)
	assert.Nil(t, session.OrderID)
}

func TestMaterializeEmptyCart(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	userID := f.node.Generate()
	f.seedSession(t, userID, "cs_test_empty")

	_, err := f.mat.Materialize(ctx, MaterializeInput{
		UserID:    userID,
		SessionID: "cs_test_empty",
		Provider:  "stripe",
		Currency:  "INR",
	})
	require.ErrorIs(t, err, cartdomain.ErrCartEmpty)
}
