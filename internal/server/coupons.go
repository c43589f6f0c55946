package server

import (
	"net/http"
	"strings"
	"time"

	coupondomain "github.com/framekart/commerce/internal/coupon/domain"
	"github.com/gin-gonic/gin"
)

type validateCouponRequest struct {
	Code string `json:"code"`
}

type couponRequest struct {
	Code          string `json:"code"`
	DiscountType  string `json:"discount_type"`
	DiscountValue int64  `json:"discount_value"`
	MinPurchase   int64  `json:"min_purchase"`
	MaxDiscount   *int64 `json:"max_discount"`
	UsageLimit    *int   `json:"usage_limit"`
	ValidFrom     string `json:"valid_from"`
	ValidUntil    string `json:"valid_until"`
}

// ValidateCoupon evaluates a code against the caller's current cart
// total. It never consumes a use.
func (s *Server) ValidateCoupon(c *gin.Context) {
	identity := currentIdentity(c)

	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		AbortWithError(c, newValidationError("code", "required", "code is required"))
		return
	}

	cart, err := s.cartSvc.Get(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	eval, err := s.couponSvc.Validate(c.Request.Context(), req.Code, cart.Total)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}

func (s *Server) ListCoupons(c *gin.Context) {
	coupons, err := s.couponSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func (s *Server) CreateCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		AbortWithError(c, newValidationError("valid_from", "invalid_date", "valid_from must be RFC 3339"))
		return
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		AbortWithError(c, newValidationError("valid_until", "invalid_date", "valid_until must be RFC 3339"))
		return
	}

	coupon, err := s.couponSvc.Create(c.Request.Context(), &coupondomain.Coupon{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinPurchase:   req.MinPurchase,
		MaxDiscount:   req.MaxDiscount,
		UsageLimit:    req.UsageLimit,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (s *Server) SetCouponActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Active bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.couponSvc.SetActive(c.Request.Context(), id, req.Active); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
