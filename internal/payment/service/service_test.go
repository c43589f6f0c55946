package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/framekart/commerce/internal/auth/domain"
	authrepository "github.com/framekart/commerce/internal/auth/repository"
	cartdomain "github.com/framekart/commerce/internal/cart/domain"
	cartrepository "github.com/framekart/commerce/internal/cart/repository"
	cartservice "github.com/framekart/commerce/internal/cart/service"
	catalogdomain "github.com/framekart/commerce/internal/catalog/domain"
	catalogrepository "github.com/framekart/commerce/internal/catalog/repository"
	"github.com/framekart/commerce/internal/clock"
	"github.com/framekart/commerce/internal/config"
	coupondomain "github.com/framekart/commerce/internal/coupon/domain"
	couponrepository "github.com/framekart/commerce/internal/coupon/repository"
	couponservice "github.com/framekart/commerce/internal/coupon/service"
	orderdomain "github.com/framekart/commerce/internal/order/domain"
	orderrepository "github.com/framekart/commerce/internal/order/repository"
	orderservice "github.com/framekart/commerce/internal/order/service"
	"github.com/framekart/commerce/internal/payment/adapters"
	"github.com/framekart/commerce/internal/payment/domain"
	paymentrepository "github.com/framekart/commerce/internal/payment/repository"
	"github.com/framekart/commerce/internal/providers/email"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeMarkerStore keeps webhook replay markers in memory.
type fakeMarkerStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newFakeMarkerStore() *fakeMarkerStore {
	return &fakeMarkerStore{keys: map[string]struct{}{}}
}

func (f *fakeMarkerStore) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := f.keys[key]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeMarkerStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = struct{}{}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeMarkerStore) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

// stubGateway answers with whatever the test last configured.
type stubGateway struct {
	verifyErr error
	event     *domain.WebhookEvent
	status    *domain.GatewayStatus
}

func (g *stubGateway) Provider() string { return "stripe" }

func (g *stubGateway) CreateSession(ctx context.Context, in domain.CreateSessionInput) (*domain.GatewaySession, error) {
	return &domain.GatewaySession{SessionID: "cs_stub", CheckoutURL: "https://stub.test/pay", Status: "open"}, nil
}

func (g *stubGateway) GetStatus(ctx context.Context, sessionID string) (*domain.GatewayStatus, error) {
	return g.status, nil
}

func (g *stubGateway) Verify(payload []byte, headers http.Header) error { return g.verifyErr }

func (g *stubGateway) Parse(payload []byte) (*domain.WebhookEvent, error) { return g.event, nil }

type paymentFixture struct {
	db        *gorm.DB
	node      *snowflake.Node
	svc       Service
	gateway   *stubGateway
	store     *fakeMarkerStore
	repo      domain.Repository
	orderRepo orderdomain.Repository
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&authdomain.User{},
		&catalogdomain.Product{},
		&cartdomain.CartItem{},
		&coupondomain.Coupon{},
		&domain.CheckoutSession{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&orderdomain.TrackingEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	logger := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	catalogRepo := catalogrepository.New(db)
	cartRepo := cartrepository.New(db)
	couponSvc := couponservice.New(logger, couponrepository.New(db), node, clk)
	paymentRepo := paymentrepository.New(db)
	orderRepo := orderrepository.New(db)

	mat := orderservice.NewMaterializer(orderservice.MaterializerParams{
		DB:          db,
		Log:         logger,
		GenID:       node,
		Clock:       clk,
		OrderRepo:   orderRepo,
		CartRepo:    cartRepo,
		CatalogRepo: catalogRepo,
		PaymentRepo: paymentRepo,
		CouponSvc:   couponSvc,
	})

	gateway := &stubGateway{}
	store := newFakeMarkerStore()

	svc := New(Params{
		Log:          logger,
		Cfg:          config.Config{},
		Repo:         paymentRepo,
		Registry:     adapters.NewRegistry(gateway),
		Materializer: mat,
		OrderRepo:    orderRepo,
		CartSvc:      cartservice.New(logger, cartRepo, catalogRepo, node),
		CouponSvc:    couponSvc,
		AuthRepo:     authrepository.New(db),
		Email:        &email.NoOpProvider{},
		Guard:        &ReplayGuard{store: store, log: logger},
		GenID:        node,
	})

	return &paymentFixture{
		db:        db,
		node:      node,
		svc:       svc,
		gateway:   gateway,
		store:     store,
		repo:      paymentRepo,
		orderRepo: orderRepo,
	}
}

func (f *paymentFixture) seedUser(t *testing.T) snowflake.ID {
	t.Helper()
	user := &authdomain.User{
		ID:    f.node.Generate(),
		Email: "priya@example.com",
		Name:  "Priya",
		Role:  "user",
	}
	require.NoError(t, f.db.Create(user).Error)
	return user.ID
}

func (f *paymentFixture) seedProduct(t *testing.T, price int64, stock int) *catalogdomain.Product {
	t.Helper()
	product := &catalogdomain.Product{
		ID:       f.node.Generate(),
		Name:     "Wayfarer Matte",
		Brand:    "FrameKart",
		Category: "sunglasses",
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *paymentFixture) seedCartItem(t *testing.T, userID, productID snowflake.ID, qty int) {
	t.Helper()
	require.NoError(t, f.db.Create(&cartdomain.CartItem{
		ID:        f.node.Generate(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}).Error)
}

func (f *paymentFixture) seedSession(t *testing.T, userID snowflake.ID, sessionID string, amount int64) {
	t.Helper()
	require.NoError(t, f.repo.Create(context.Background(), &domain.CheckoutSession{
		ID:        f.node.Generate(),
		SessionID: sessionID,
		Provider:  "stripe",
		UserID:    userID,
		Amount:    amount,
		Currency:  "INR",
		Status:    domain.StatusPending,
	}))
}

func (f *paymentFixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&orderdomain.Order{}).Count(&n).Error)
	return n
}

func TestHandleWebhookRetryAfterFailedMaterialization(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	userID := f.seedUser(t)
	product := f.seedProduct(t, 5000, 1)
	f.seedCartItem(t, userID, product.ID, 3)
	f.seedSession(t, userID, "cs_retry", 15000)

	f.gateway.event = &domain.WebhookEvent{
		Provider:  "stripe",
		EventID:   "evt_1001",
		EventType: "checkout.session.completed",
		SessionID: "cs_retry",
		Status:    domain.StatusPaid,
	}

	// Stock cannot cover the cart, so the first delivery fails and
	// must leave no replay marker behind.
	require.Error(t, f.svc.HandleWebhook(ctx, "stripe", []byte(`{}`), http.Header{}))
	assert.Equal(t, 0, f.store.size())
	assert.Equal(t, int64(0), f.orderCount(t))

	require.NoError(t, f.db.Model(&catalogdomain.Product{}).
		Where("id = ?", product.ID).
		Update("stock", 5).Error)

	// The provider retry carries the same event ID and must be
	// processed, not dropped as a replay.
	require.NoError(t, f.svc.HandleWebhook(ctx, "stripe", []byte(`{}`), http.Header{}))
	assert.Equal(t, 1, f.store.size())

	order, err := f.orderRepo.FindBySession(ctx, "cs_retry")
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNo)
}

func TestHandleWebhookDropsMarkedReplay(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	userID := f.seedUser(t)
	product := f.seedProduct(t, 5000, 10)
	f.seedCartItem(t, userID, product.ID, 1)
	f.seedSession(t, userID, "cs_first", 5000)
	f.seedSession(t, userID, "cs_second", 5000)

	f.gateway.event = &domain.WebhookEvent{
		Provider:  "stripe",
		EventID:   "evt_2001",
		EventType: "checkout.session.completed",
		SessionID: "cs_first",
		Status:    domain.StatusPaid,
	}
	require.NoError(t, f.svc.HandleWebhook(ctx, "stripe", []byte(`{}`), http.Header{}))
	require.Equal(t, int64(1), f.orderCount(t))

	// Same event ID pointed at another session: the marker wins and
	// the delivery is acknowledged without effect.
	f.gateway.event = &domain.WebhookEvent{
		Provider:  "stripe",
		EventID:   "evt_2001",
		EventType: "checkout.session.completed",
		SessionID: "cs_second",
		Status:    domain.StatusPaid,
	}
	require.NoError(t, f.svc.HandleWebhook(ctx, "stripe", []byte(`{}`), http.Header{}))
	assert.Equal(t, int64(1), f.orderCount(t))

	second, err := f.repo.FindBySessionID(ctx, "cs_second")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, second.Status)
}

func TestReplayGuardWithoutRedis(t *testing.T) {
	ctx := context.Background()

	guard := NewReplayGuard(nil, zap.NewNop())
	assert.False(t, guard.Seen(ctx, "stripe", "evt_1"))
	guard.Mark(ctx, "stripe", "evt_1")
	assert.False(t, guard.Seen(ctx, "stripe", "evt_1"))

	store := newFakeMarkerStore()
	guard = &ReplayGuard{store: store, log: zap.NewNop()}
	guard.Mark(ctx, "stripe", "")
	assert.False(t, guard.Seen(ctx, "stripe", ""))
	assert.Equal(t, 0, store.size())
}

func TestCheckStatusMaterializedIncludesOrderNo(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	userID := f.seedUser(t)
	product := f.seedProduct(t, 5000, 10)
	f.seedCartItem(t, userID, product.ID, 2)
	f.seedSession(t, userID, "cs_poll", 10000)

	f.gateway.status = &domain.GatewayStatus{
		Status:         domain.StatusPaid,
		ProviderStatus: "payment_intent.succeeded",
		Amount:         10000,
		Currency:       "INR",
	}

	result, err := f.svc.CheckStatus(ctx, userID, "cs_poll")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, result.Status)
	require.NotNil(t, result.OrderID)

	order, err := f.orderRepo.FindBySession(ctx, "cs_poll")
	require.NoError(t, err)
	assert.Equal(t, order.ID, *result.OrderID)
	assert.Equal(t, order.OrderNo, result.OrderNo)
	assert.NotEmpty(t, result.OrderNo)
}
