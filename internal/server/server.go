package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/framekart/commerce/internal/auth"
	authdomain "github.com/framekart/commerce/internal/auth/domain"
	"github.com/framekart/commerce/internal/cart"
	cartservice "github.com/framekart/commerce/internal/cart/service"
	"github.com/framekart/commerce/internal/catalog"
	catalogservice "github.com/framekart/commerce/internal/catalog/service"
	"github.com/framekart/commerce/internal/config"
	"github.com/framekart/commerce/internal/coupon"
	couponservice "github.com/framekart/commerce/internal/coupon/service"
	"github.com/framekart/commerce/internal/observability"
	obsmiddleware "github.com/framekart/commerce/internal/observability/logger"
	obsmetrics "github.com/framekart/commerce/internal/observability/metrics"
	obstracing "github.com/framekart/commerce/internal/observability/tracing"
	"github.com/framekart/commerce/internal/order"
	orderservice "github.com/framekart/commerce/internal/order/service"
	"github.com/framekart/commerce/internal/payment"
	paymentservice "github.com/framekart/commerce/internal/payment/service"
	"github.com/framekart/commerce/internal/providers"
	"github.com/framekart/commerce/internal/providers/pdf"
	"github.com/framekart/commerce/internal/ratelimit"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	catalog.Module,
	cart.Module,
	coupon.Module,
	order.Module,
	payment.Module,
	providers.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	authSvc    authdomain.Service
	authRepo   authdomain.Repository
	catalogSvc catalogservice.Service
	cartSvc    cartservice.Service
	couponSvc  couponservice.Service
	orderSvc   orderservice.Service
	paymentSvc paymentservice.Service
	pdfSvc     pdf.Provider
	limiter    *ratelimit.CheckoutLimiter
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	AuthSvc    authdomain.Service
	AuthRepo   authdomain.Repository
	CatalogSvc catalogservice.Service
	CartSvc    cartservice.Service
	CouponSvc  couponservice.Service
	OrderSvc   orderservice.Service
	PaymentSvc paymentservice.Service
	PDFSvc     pdf.Provider
	Limiter    *ratelimit.CheckoutLimiter
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		authSvc:    p.AuthSvc,
		authRepo:   p.AuthRepo,
		catalogSvc: p.CatalogSvc,
		cartSvc:    p.CartSvc,
		couponSvc:  p.CouponSvc,
		orderSvc:   p.OrderSvc,
		paymentSvc: p.PaymentSvc,
		pdfSvc:     p.PDFSvc,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerPublicRoutes()
	svc.registerAccountRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	api.POST("/auth/register", s.Register)
	api.POST("/auth/login", s.Login)

	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProductByID)

	// Gateway callbacks authenticate through signatures, not sessions.
	api.POST("/webhook/:provider", s.HandlePaymentWebhook)
}

func (s *Server) registerAccountRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.GET("/auth/me", s.Me)

	api.GET("/cart", s.GetCart)
	api.POST("/cart/items", s.AddCartItem)
	api.PATCH("/cart/items/:product_id", s.UpdateCartItem)
	api.DELETE("/cart/items/:product_id", s.RemoveCartItem)
	api.DELETE("/cart", s.ClearCart)

	api.POST("/coupons/validate", s.ValidateCoupon)

	api.POST("/payment/checkout", s.CreateCheckout)
	api.GET("/payment/status/:session_id", s.GetCheckoutStatus)
	api.POST("/payment/verify", s.VerifyPayment)

	api.GET("/orders", s.ListMyOrders)
	api.GET("/orders/:id", s.GetOrderByID)
	api.GET("/orders/:id/receipt", s.GetOrderReceipt)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.AuthRequired(), s.AdminRequired())

	admin.POST("/products", s.CreateProduct)
	admin.PATCH("/products/:id", s.UpdateProduct)
	admin.DELETE("/products/:id", s.DeleteProduct)

	admin.GET("/coupons", s.ListCoupons)
	admin.POST("/coupons", s.CreateCoupon)
	admin.PATCH("/coupons/:id/active", s.SetCouponActive)

	admin.GET("/orders", s.ListAllOrders)
	admin.PATCH("/orders/:id/status", s.UpdateOrderStatus)
	admin.GET("/orders/stats", s.GetOrderStats)
}
