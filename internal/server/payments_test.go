package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/framekart/commerce/internal/auth/domain"
	paymentdomain "github.com/framekart/commerce/internal/payment/domain"
	paymentservice "github.com/framekart/commerce/internal/payment/service"
	"github.com/gin-gonic/gin"
)

type fakePaymentService struct {
	checkoutCalls int
	webhookCalls  int
	lastProvider  string
	lastPayload   []byte
	webhookErr    error
	checkoutErr   error
}

func (f *fakePaymentService) Checkout(ctx context.Context, userID snowflake.ID, in paymentservice.CheckoutInput) (*paymentservice.CheckoutResult, error) {
	f.checkoutCalls++
	_ = ctx
	_ = userID
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &paymentservice.CheckoutResult{
		SessionID:   "cs_test_1",
		Provider:    in.Provider,
		CheckoutURL: "https://checkout.example/cs_test_1",
		Amount:      8000,
		Currency:    "INR",
	}, nil
}

func (f *fakePaymentService) CheckStatus(ctx context.Context, userID snowflake.ID, sessionID string) (*paymentservice.StatusResult, error) {
	_ = ctx
	_ = userID
	return &paymentservice.StatusResult{SessionID: sessionID, Status: paymentdomain.StatusPending}, nil
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	f.webhookCalls++
	f.lastProvider = provider
	f.lastPayload = payload
	_ = ctx
	_ = headers
	return f.webhookErr
}

func (f *fakePaymentService) VerifyClientPayment(ctx context.Context, provider, sessionID, paymentID, signature string) (*paymentservice.StatusResult, error) {
	_ = ctx
	_ = provider
	_ = paymentID
	_ = signature
	return &paymentservice.StatusResult{SessionID: sessionID, Status: paymentdomain.StatusPaid}, nil
}

func newPaymentTestRouter(svc paymentservice.Service) (*gin.Engine, *Server) {
	gin.SetMode(gin.TestMode)
	srv := &Server{paymentSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/webhook/:provider", srv.HandlePaymentWebhook)
	router.POST("/api/payment/checkout", func(c *gin.Context) {
		c.Set(contextIdentityKey, &authdomain.Identity{UserID: snowflake.ID(42), Role: authdomain.RoleUser})
		srv.CreateCheckout(c)
	})
	return router, srv
}

func TestHandlePaymentWebhook(t *testing.T) {
	svc := &fakePaymentService{}
	router, _ := newPaymentTestRouter(svc)

	body := []byte(`{"event":"payment.captured"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/razorpay", bytes.NewBuffer(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.webhookCalls != 1 {
		t.Fatalf("expected one webhook call, got %d", svc.webhookCalls)
	}
	if svc.lastProvider != "razorpay" {
		t.Fatalf("expected provider razorpay, got %s", svc.lastProvider)
	}
	if !bytes.Equal(svc.lastPayload, body) {
		t.Fatalf("expected raw body to reach the service untouched")
	}
}

func TestHandlePaymentWebhookBadSignature(t *testing.T) {
	svc := &fakePaymentService{webhookErr: paymentdomain.ErrInvalidSignature}
	router, _ := newPaymentTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewBufferString(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}

	var payload map[string]map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload["error"]["type"] != "signature_invalid" {
		t.Fatalf("expected signature_invalid type, got %v", payload["error"]["type"])
	}
}

func TestCreateCheckout(t *testing.T) {
	svc := &fakePaymentService{}
	router, _ := newPaymentTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/checkout", bytes.NewBufferString(`{"provider":"stripe","shipping_address":"12 Marine Drive, Mumbai 400020"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	if svc.checkoutCalls != 1 {
		t.Fatalf("expected one checkout call, got %d", svc.checkoutCalls)
	}

	var result paymentservice.CheckoutResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.SessionID != "cs_test_1" {
		t.Fatalf("expected session cs_test_1, got %s", result.SessionID)
	}
}

func TestCreateCheckoutProviderDisabled(t *testing.T) {
	svc := &fakePaymentService{checkoutErr: paymentdomain.ErrProviderDisabled}
	router, _ := newPaymentTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/checkout", bytes.NewBufferString(`{"provider":"adyen"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}
