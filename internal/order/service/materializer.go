package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/cache"
	cartdomain "github.com/framekart/commerce/internal/cart/domain"
	catalogdomain "github.com/framekart/commerce/internal/catalog/domain"
	"github.com/framekart/commerce/internal/clock"
	coupondomain "github.com/framekart/commerce/internal/coupon/domain"
	couponservice "github.com/framekart/commerce/internal/coupon/service"
	"github.com/framekart/commerce/internal/observability/metrics"
	"github.com/framekart/commerce/internal/order/domain"
	paymentdomain "github.com/framekart/commerce/internal/payment/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaterializeInput identifies the paid checkout session an order is
// built from.
type MaterializeInput struct {
	UserID          snowflake.ID
	SessionID       string
	Provider        string
	CouponCode      string
	Currency        string
	ShippingAddress string
}

type MaterializerParams struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cache       *cache.Cache
	Metrics     *metrics.Metrics
	GenID       *snowflake.Node
	Clock       clock.Clock
	OrderRepo   domain.Repository
	CartRepo    cartdomain.Repository
	CatalogRepo catalogdomain.Repository
	PaymentRepo paymentdomain.Repository
	CouponSvc   couponservice.Service
}

// Materializer turns exactly one order out of a paid checkout session.
// All writes happen in a single transaction keyed on the session's
// order_id CAS, so concurrent webhooks and polls for the same session
// collapse into one order and one stock decrement.
type Materializer struct {
	db          *gorm.DB
	log         *zap.Logger
	cache       *cache.Cache
	metrics     *metrics.Metrics
	genID       *snowflake.Node
	clock       clock.Clock
	orderRepo   domain.Repository
	cartRepo    cartdomain.Repository
	catalogRepo catalogdomain.Repository
	paymentRepo paymentdomain.Repository
	couponSvc   couponservice.Service
}

func NewMaterializer(p MaterializerParams) *Materializer {
	return &Materializer{
		db:          p.DB,
		log:         p.Log.Named("order.materializer"),
		cache:       p.Cache,
		metrics:     p.Metrics,
		genID:       p.GenID,
		clock:       p.Clock,
		orderRepo:   p.OrderRepo,
		cartRepo:    p.CartRepo,
		catalogRepo: p.CatalogRepo,
		paymentRepo: p.PaymentRepo,
		couponSvc:   p.CouponSvc,
	}
}

// Materialize builds the order for a paid session. It re-checks stock
// under row locks, freezes item snapshots, applies the coupon, creates
// the order, decrements stock, clears the cart and attaches the order
// to the session, all in one transaction. A session that already has an
// order reports paymentdomain.ErrOrderAlreadyAttached and leaves the
// database untouched.
func (m *Materializer) Materialize(ctx context.Context, in MaterializeInput) (*domain.Order, error) {
	var order *domain.Order

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := m.cartRepo.ListTx(tx, in.UserID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return cartdomain.ErrCartEmpty
		}

		now := m.clock.Now()
		orderID := m.genID.Generate()

		var subtotal int64
		snapshots := make([]domain.OrderItem, 0, len(items))
		for _, item := range items {
			product, err := m.catalogRepo.FindForUpdate(tx, item.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive || product.Stock < item.Quantity {
				return &catalogdomain.InsufficientStockError{ProductID: product.ID}
			}

			lineTotal := product.Price * int64(item.Quantity)
			subtotal += lineTotal
			snapshots = append(snapshots, domain.OrderItem{
				ID:          m.genID.Generate(),
				OrderID:     orderID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Brand:       product.Brand,
				ImageURL:    product.ImageURL,
				UnitPrice:   product.Price,
				Quantity:    item.Quantity,
				LineTotal:   lineTotal,
			})
		}

		var discount int64
		var couponCode *string
		if code := coupondomain.CanonicalCode(in.CouponCode); code != "" {
			eval, err := m.couponSvc.Validate(ctx, code, subtotal)
			if err != nil {
				return err
			}
			if eval.Valid {
				if err := m.couponSvc.Redeem(ctx, tx, code); err != nil {
					return err
				}
				discount = eval.Discount
				couponCode = &code
			} else {
				m.log.Warn("coupon no longer valid at materialization, order placed without discount",
					zap.String("session_id", in.SessionID),
					zap.String("code", code),
					zap.String("reason", eval.Reason),
				)
			}
		}

		total := subtotal - discount
		if total < 0 {
			total = 0
		}

		order = &domain.Order{
			ID:              orderID,
			OrderNo:         newOrderNo(now),
			UserID:          in.UserID,
			SessionID:       in.SessionID,
			Provider:        in.Provider,
			Status:          domain.StatusProcessing,
			PaymentStatus:   domain.PaymentStatusPaid,
			Subtotal:        subtotal,
			Discount:        discount,
			CouponCode:      couponCode,
			Total:           total,
			Currency:        in.Currency,
			ShippingAddress: in.ShippingAddress,
			Items:           snapshots,
			Tracking: []domain.TrackingEvent{{
				ID:        m.genID.Generate(),
				OrderID:   orderID,
				Status:    domain.StatusProcessing,
				Location:  "Warehouse",
				Note:      "Order received",
				CreatedAt: now,
			}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := m.orderRepo.CreateTx(tx, order); err != nil {
			return err
		}

		for _, snapshot := range snapshots {
			if err := m.catalogRepo.DecrementStock(tx, snapshot.ProductID, snapshot.Quantity); err != nil {
				return err
			}
		}

		if err := m.cartRepo.ClearTx(tx, in.UserID); err != nil {
			return err
		}

		return m.paymentRepo.AttachOrderTx(tx, in.SessionID, orderID)
	})
	if err != nil {
		return nil, err
	}

	m.cache.DeletePattern(ctx, "products:*")
	m.metrics.RecordOrderMaterialized(ctx, in.Provider)
	m.log.Info("order materialized",
		zap.String("order_id", order.ID.String()),
		zap.String("order_no", order.OrderNo),
		zap.String("session_id", in.SessionID),
		zap.String("provider", in.Provider),
		zap.Int64("total", order.Total),
	)
	return order, nil
}

func newOrderNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("FK-%s-%s", now.Format("20060102"), suffix)
}
