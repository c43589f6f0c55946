package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/framekart/commerce/internal/auth/domain"
	cartdomain "github.com/framekart/commerce/internal/cart/domain"
	cartservice "github.com/framekart/commerce/internal/cart/service"
	"github.com/framekart/commerce/internal/config"
	coupondomain "github.com/framekart/commerce/internal/coupon/domain"
	couponservice "github.com/framekart/commerce/internal/coupon/service"
	"github.com/framekart/commerce/internal/observability/metrics"
	orderdomain "github.com/framekart/commerce/internal/order/domain"
	orderservice "github.com/framekart/commerce/internal/order/service"
	"github.com/framekart/commerce/internal/payment/adapters"
	"github.com/framekart/commerce/internal/payment/domain"
	"github.com/framekart/commerce/internal/providers/email"
	"github.com/framekart/commerce/internal/ratelimit"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CheckoutInput starts a payment for the caller's current cart.
type CheckoutInput struct {
	Provider        string
	CouponCode      string
	ShippingAddress string
}

// CheckoutResult is handed to the client to open hosted checkout.
// CheckoutURL is set for redirect flows, KeyID for browser modal flows.
type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	Provider    string `json:"provider"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	KeyID       string `json:"key_id,omitempty"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// StatusResult reports where a session stands and, once materialized,
// which order it produced.
type StatusResult struct {
	SessionID      string        `json:"session_id"`
	Status         string        `json:"status"`
	ProviderStatus string        `json:"provider_status,omitempty"`
	Amount         int64         `json:"amount"`
	Currency       string        `json:"currency"`
	OrderID        *snowflake.ID `json:"order_id,omitempty"`
	OrderNo        string        `json:"order_no,omitempty"`
}

type Service interface {
	// Checkout prices the cart, opens a session at the gateway and
	// records it locally as pending.
	Checkout(ctx context.Context, userID snowflake.ID, in CheckoutInput) (*CheckoutResult, error)

	// CheckStatus polls the gateway for a pending session and
	// materializes the order when the gateway reports it paid.
	CheckStatus(ctx context.Context, userID snowflake.ID, sessionID string) (*StatusResult, error)

	// HandleWebhook verifies, parses and converges one provider
	// delivery. Replays and events for already attached sessions are
	// acknowledged without effect.
	HandleWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error

	// VerifyClientPayment confirms a browser-reported payment via the
	// provider's client signature and converges the session.
	VerifyClientPayment(ctx context.Context, provider, sessionID, paymentID, signature string) (*StatusResult, error)
}

type Params struct {
	fx.In

	Log          *zap.Logger
	Cfg          config.Config
	Holder       *config.CheckoutConfigHolder
	Repo         domain.Repository
	Registry     *adapters.Registry
	Materializer *orderservice.Materializer
	OrderRepo    orderdomain.Repository
	CartSvc      cartservice.Service
	CouponSvc    couponservice.Service
	AuthRepo     authdomain.Repository
	Email        email.Provider
	Limiter      *ratelimit.CheckoutLimiter `optional:"true"`
	Guard        *ReplayGuard
	Metrics      *metrics.Metrics
	GenID        *snowflake.Node
}

type service struct {
	log          *zap.Logger
	cfg          config.Config
	holder       *config.CheckoutConfigHolder
	repo         domain.Repository
	registry     *adapters.Registry
	materializer *orderservice.Materializer
	orderRepo    orderdomain.Repository
	cartSvc      cartservice.Service
	couponSvc    couponservice.Service
	authRepo     authdomain.Repository
	email        email.Provider
	limiter      *ratelimit.CheckoutLimiter
	guard        *ReplayGuard
	metrics      *metrics.Metrics
	genID        *snowflake.Node
}

func New(p Params) Service {
	return &service{
		log:          p.Log.Named("payment.service"),
		cfg:          p.Cfg,
		holder:       p.Holder,
		repo:         p.Repo,
		registry:     p.Registry,
		materializer: p.Materializer,
		orderRepo:    p.OrderRepo,
		cartSvc:      p.CartSvc,
		couponSvc:    p.CouponSvc,
		authRepo:     p.AuthRepo,
		email:        p.Email,
		limiter:      p.Limiter,
		guard:        p.Guard,
		metrics:      p.Metrics,
		genID:        p.GenID,
	}
}

func (s *service) Checkout(ctx context.Context, userID snowflake.ID, in CheckoutInput) (*CheckoutResult, error) {
	checkoutCfg := s.holder.Get()

	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		provider = checkoutCfg.DefaultGateway
	}
	if !checkoutCfg.GatewayEnabled(provider) {
		return nil, domain.ErrProviderDisabled
	}
	gateway, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartSvc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, cartdomain.ErrCartEmpty
	}

	amount := cart.Total
	var couponCode *string
	code := coupondomain.CanonicalCode(in.CouponCode)
	if code != "" {
		eval, err := s.couponSvc.Validate(ctx, code, cart.Total)
		if err != nil {
			return nil, err
		}
		if !eval.Valid {
			return nil, fmt.Errorf("%w: %s", coupondomain.ErrInvalidCoupon, eval.Reason)
		}
		amount = eval.FinalTotal
		couponCode = &code
	}

	reference := newReference()
	gatewaySession, err := gateway.CreateSession(ctx, domain.CreateSessionInput{
		Reference:  reference,
		Amount:     amount,
		Currency:   checkoutCfg.Currency,
		SuccessURL: s.cfg.BaseURL + checkoutCfg.SuccessPath,
		CancelURL:  s.cfg.BaseURL + checkoutCfg.CancelPath,
		Metadata: map[string]string{
			"user_id":   userID.String(),
			"reference": reference,
		},
	})
	if err != nil {
		return nil, err
	}

	session := &domain.CheckoutSession{
		ID:              s.genID.Generate(),
		SessionID:       gatewaySession.SessionID,
		Provider:        provider,
		UserID:          userID,
		Amount:          amount,
		Currency:        checkoutCfg.Currency,
		CouponCode:      couponCode,
		Status:          domain.StatusPending,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		CheckoutURL:     gatewaySession.CheckoutURL,
		Metadata: datatypes.JSONMap{
			"reference": reference,
		},
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.RecordCheckoutSession(ctx, provider)
	s.log.Info("checkout session created",
		zap.String("session_id", session.SessionID),
		zap.String("provider", provider),
		zap.Int64("amount", amount),
	)

	result := &CheckoutResult{
		SessionID:   session.SessionID,
		Provider:    provider,
		CheckoutURL: session.CheckoutURL,
		Amount:      amount,
		Currency:    session.Currency,
	}
	if keyed, ok := gateway.(interface{ KeyID() string }); ok {
		result.KeyID = keyed.KeyID()
	}
	return result, nil
}

func (s *service) CheckStatus(ctx context.Context, userID snowflake.ID, sessionID string) (*StatusResult, error) {
	session, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}

	if session.Attached() {
		return s.attachedResult(ctx, session)
	}
	if session.Status == domain.StatusFailed || session.Status == domain.StatusCancelled {
		return sessionResult(session, session.Status, session.ProviderStatus), nil
	}

	gateway, err := s.registry.Get(session.Provider)
	if err != nil {
		return nil, err
	}
	status, err := gateway.GetStatus(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}

	if status.Status == domain.StatusPaid {
		order, err := s.converge(ctx, session)
		if err != nil {
			return nil, err
		}
		result := sessionResult(session, domain.StatusPaid, status.ProviderStatus)
		result.OrderID = &order.ID
		result.OrderNo = order.OrderNo
		return result, nil
	}

	if status.Status != session.Status || status.ProviderStatus != session.ProviderStatus {
		if err := s.repo.UpdateStatus(ctx, session.SessionID, status.Status, status.ProviderStatus); err != nil {
			return nil, err
		}
	}
	return sessionResult(session, status.Status, status.ProviderStatus), nil
}

func (s *service) HandleWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	gateway, err := s.registry.Get(provider)
	if err != nil {
		return err
	}
	if err := gateway.Verify(payload, headers); err != nil {
		return err
	}

	event, err := gateway.Parse(payload)
	if errors.Is(err, domain.ErrEventIgnored) {
		return nil
	}
	if err != nil {
		return err
	}

	s.metrics.RecordPaymentEvent(ctx, provider, event.EventType)

	if s.guard.Seen(ctx, provider, event.EventID) {
		s.log.Info("webhook replay dropped",
			zap.String("provider", provider),
			zap.String("event_id", event.EventID),
		)
		return nil
	}

	session, err := s.repo.FindBySessionID(ctx, event.SessionID)
	if err != nil {
		return err
	}

	// Mark only after the event's effects are committed. A failed
	// converge stays unmarked so the provider's retry is processed
	// instead of dropped.
	switch event.Status {
	case domain.StatusPaid:
		if !session.Attached() {
			if _, err := s.converge(ctx, session); err != nil {
				return err
			}
		}
	case domain.StatusFailed, domain.StatusCancelled:
		if !session.Attached() {
			if err := s.repo.UpdateStatus(ctx, session.SessionID, event.Status, event.ProviderStatus); err != nil {
				return err
			}
		}
	}
	s.guard.Mark(ctx, provider, event.EventID)
	return nil
}

func (s *service) VerifyClientPayment(ctx context.Context, provider, sessionID, paymentID, signature string) (*StatusResult, error) {
	gateway, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	verifier, ok := gateway.(domain.ClientSignatureVerifier)
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	if err := verifier.VerifyClientSignature(sessionID, paymentID, signature); err != nil {
		return nil, err
	}

	session, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Attached() {
		return s.attachedResult(ctx, session)
	}

	order, err := s.converge(ctx, session)
	if err != nil {
		return nil, err
	}
	result := sessionResult(session, domain.StatusPaid, session.ProviderStatus)
	result.OrderID = &order.ID
	result.OrderNo = order.OrderNo
	return result, nil
}

// converge materializes the order for a paid session. Losing the attach
// race is success: the order already exists and is returned.
func (s *service) converge(ctx context.Context, session *domain.CheckoutSession) (*orderdomain.Order, error) {
	token, ok, err := s.limiter.TryLockSession(ctx, session.SessionID)
	if err == nil && ok {
		defer func() { _ = s.limiter.ReleaseSession(ctx, session.SessionID, token) }()
	}

	var couponCode string
	if session.CouponCode != nil {
		couponCode = *session.CouponCode
	}

	order, err := s.materializer.Materialize(ctx, orderservice.MaterializeInput{
		UserID:          session.UserID,
		SessionID:       session.SessionID,
		Provider:        session.Provider,
		CouponCode:      couponCode,
		Currency:        session.Currency,
		ShippingAddress: session.ShippingAddress,
	})
	if errors.Is(err, domain.ErrOrderAlreadyAttached) {
		existing, findErr := s.orderRepo.FindBySession(ctx, session.SessionID)
		if findErr != nil {
			return nil, findErr
		}
		return existing, nil
	}
	if err != nil {
		// Money was captured but the order cannot be built. Keep the
		// session paid and unattached so support can intervene.
		s.log.Error("paid session could not be materialized",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
		if updateErr := s.repo.UpdateStatus(ctx, session.SessionID, domain.StatusPaid, session.ProviderStatus); updateErr != nil {
			s.log.Error("session status update failed", zap.Error(updateErr))
		}
		return nil, err
	}

	s.sendConfirmation(session, order)
	return order, nil
}

func (s *service) attachedResult(ctx context.Context, session *domain.CheckoutSession) (*StatusResult, error) {
	result := sessionResult(session, domain.StatusPaid, session.ProviderStatus)
	result.OrderID = session.OrderID
	if order, err := s.orderRepo.FindBySession(ctx, session.SessionID); err == nil {
		result.OrderNo = order.OrderNo
	}
	return result, nil
}

func sessionResult(session *domain.CheckoutSession, status, providerStatus string) *StatusResult {
	return &StatusResult{
		SessionID:      session.SessionID,
		Status:         status,
		ProviderStatus: providerStatus,
		Amount:         session.Amount,
		Currency:       session.Currency,
	}
}

func (s *service) sendConfirmation(session *domain.CheckoutSession, order *orderdomain.Order) {
	go func() {
		ctx := context.Background()
		user, err := s.authRepo.FindByID(ctx, session.UserID)
		if err != nil {
			s.log.Warn("confirmation email skipped", zap.Error(err))
			return
		}

		data := map[string]any{
			"subject":  fmt.Sprintf("Order %s confirmed", order.OrderNo),
			"name":     user.Name,
			"order_no": order.OrderNo,
			"total":    order.Total,
			"currency": order.Currency,
			"items":    order.Items,
		}
		if err := s.email.SendTemplate(ctx, []string{user.Email}, "order_confirmation", data); err != nil {
			s.log.Warn("confirmation email failed",
				zap.String("order_no", order.OrderNo),
				zap.Error(err),
			)
			return
		}
		s.metrics.RecordEmailSent(ctx, "order_confirmation")
	}()
}

func newReference() string {
	return "chk-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
