package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	coupondomain "github.com/framekart/commerce/internal/coupon/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type fakeCouponService struct {
	setActiveCalls int
	lastID         snowflake.ID
	lastActive     bool
}

func (f *fakeCouponService) Validate(ctx context.Context, code string, cartTotal int64) (*coupondomain.Evaluation, error) {
	return &coupondomain.Evaluation{Valid: true, FinalTotal: cartTotal}, nil
}

func (f *fakeCouponService) Redeem(ctx context.Context, tx *gorm.DB, code string) error { return nil }

func (f *fakeCouponService) Create(ctx context.Context, coupon *coupondomain.Coupon) (*coupondomain.Coupon, error) {
	return coupon, nil
}

func (f *fakeCouponService) List(ctx context.Context) ([]coupondomain.Coupon, error) {
	return nil, nil
}

func (f *fakeCouponService) SetActive(ctx context.Context, id snowflake.ID, active bool) error {
	f.setActiveCalls++
	f.lastID = id
	f.lastActive = active
	return nil
}

func newCouponTestRouter(svc *fakeCouponService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := &Server{couponSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.PATCH("/api/admin/coupons/:id/active", srv.SetCouponActive)
	return router
}

func TestSetCouponActiveBindsIsActive(t *testing.T) {
	svc := &fakeCouponService{}
	router := newCouponTestRouter(svc)

	body := []byte(`{"is_active":true}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/coupons/9001/active", bytes.NewBuffer(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.setActiveCalls != 1 {
		t.Fatalf("expected one SetActive call, got %d", svc.setActiveCalls)
	}
	if svc.lastID != snowflake.ID(9001) {
		t.Fatalf("expected coupon id 9001, got %d", svc.lastID)
	}
	if !svc.lastActive {
		t.Fatal("expected is_active true to be bound")
	}
}

func TestSetCouponActiveDeactivates(t *testing.T) {
	svc := &fakeCouponService{}
	router := newCouponTestRouter(svc)

	body := []byte(`{"is_active":false}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/coupons/9001/active", bytes.NewBuffer(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.lastActive {
		t.Fatal("expected is_active false to be bound")
	}
}
