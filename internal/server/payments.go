package server

import (
	"io"
	"net/http"
	"strings"

	paymentservice "github.com/framekart/commerce/internal/payment/service"
	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Provider        string `json:"provider"`
	CouponCode      string `json:"coupon_code"`
	ShippingAddress string `json:"shipping_address"`
}

type verifyPaymentRequest struct {
	Provider  string `json:"provider"`
	SessionID string `json:"session_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	identity := currentIdentity(c)
	ctx := c.Request.Context()

	allowed, err := s.limiter.AllowCheckout(ctx, identity.UserID.String())
	if err == nil && !allowed {
		s.obsMetrics.RecordRateLimitDenied(ctx, "checkout", "rate")
		AbortWithError(c, ErrRateLimited)
		return
	}
	s.obsMetrics.RecordRateLimitAllowed(ctx, "checkout")

	token, locked, err := s.limiter.TryLockPayment(ctx, identity.UserID.String())
	if err == nil && !locked {
		s.obsMetrics.RecordRateLimitDenied(ctx, "checkout", "lock")
		AbortWithError(c, ErrRateLimited)
		return
	}
	defer func() { _ = s.limiter.ReleasePayment(ctx, identity.UserID.String(), token) }()

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.Checkout(ctx, identity.UserID, paymentservice.CheckoutInput{
		Provider:        req.Provider,
		CouponCode:      req.CouponCode,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) GetCheckoutStatus(c *gin.Context) {
	identity := currentIdentity(c)
	ctx := c.Request.Context()

	allowed, err := s.limiter.AllowStatusPoll(ctx, identity.UserID.String())
	if err == nil && !allowed {
		s.obsMetrics.RecordRateLimitDenied(ctx, "payment_status", "rate")
		AbortWithError(c, ErrRateLimited)
		return
	}

	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	result, err := s.paymentSvc.CheckStatus(ctx, identity.UserID, sessionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.VerifyClientPayment(
		c.Request.Context(),
		req.Provider,
		req.SessionID,
		req.PaymentID,
		req.Signature,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.paymentSvc.HandleWebhook(c.Request.Context(), provider, payload, c.Request.Header); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
