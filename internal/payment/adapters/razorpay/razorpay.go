package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/framekart/commerce/internal/config"
	paymentdomain "github.com/framekart/commerce/internal/payment/domain"
)

const apiBaseURL = "https://api.razorpay.com"

type Gateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	client        *http.Client
}

func New(cfg config.RazorpayConfig) (*Gateway, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if keyID == "" || keySecret == "" || webhookSecret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return &Gateway{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 12 * time.Second},
	}, nil
}

func (g *Gateway) Provider() string {
	return "razorpay"
}

// KeyID is handed to browser checkout so it can open the payment modal.
func (g *Gateway) KeyID() string {
	return g.keyID
}

func (g *Gateway) CreateSession(ctx context.Context, in paymentdomain.CreateSessionInput) (*paymentdomain.GatewaySession, error) {
	body := map[string]any{
		"amount":   in.Amount,
		"currency": strings.ToUpper(in.Currency),
		"receipt":  in.Reference,
	}
	if len(in.Metadata) > 0 {
		body["notes"] = in.Metadata
	}

	order, err := g.doRequest(ctx, http.MethodPost, "/v1/orders", body)
	if err != nil {
		return nil, err
	}
	return &paymentdomain.GatewaySession{
		SessionID: order.ID,
		Status:    normalizeStatus(order.Status),
	}, nil
}

func (g *Gateway) GetStatus(ctx context.Context, sessionID string) (*paymentdomain.GatewayStatus, error) {
	order, err := g.doRequest(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	return &paymentdomain.GatewayStatus{
		Status:         normalizeStatus(order.Status),
		ProviderStatus: order.Status,
		Amount:         order.Amount,
		Currency:       strings.ToUpper(strings.TrimSpace(order.Currency)),
	}, nil
}

func (g *Gateway) Verify(payload []byte, headers http.Header) error {
	signature := strings.TrimSpace(headers.Get("X-Razorpay-Signature"))
	if signature == "" {
		return paymentdomain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

func (g *Gateway) Parse(payload []byte) (*paymentdomain.WebhookEvent, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	eventType := strings.TrimSpace(event.Event)
	var status string
	switch eventType {
	case "payment.captured":
		status = paymentdomain.StatusPaid
	case "payment.failed":
		status = paymentdomain.StatusFailed
	case "payment.authorized":
		status = paymentdomain.StatusPending
	case "order.paid":
		status = paymentdomain.StatusPaid
	default:
		return nil, paymentdomain.ErrEventIgnored
	}

	out := &paymentdomain.WebhookEvent{
		Provider:   "razorpay",
		EventType:  eventType,
		Status:     status,
		OccurredAt: timestamp(event.CreatedAt),
		RawPayload: payload,
	}

	if eventType == "order.paid" {
		order := event.Payload.Order.Entity
		if strings.TrimSpace(order.ID) == "" {
			return nil, paymentdomain.ErrInvalidEvent
		}
		out.SessionID = order.ID
		out.Amount = order.Amount
		out.Currency = strings.ToUpper(strings.TrimSpace(order.Currency))
		out.ProviderStatus = order.Status
		out.EventID = eventType + ":" + order.ID
		return out, nil
	}

	payment := event.Payload.Payment.Entity
	if strings.TrimSpace(payment.OrderID) == "" || strings.TrimSpace(payment.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}
	out.SessionID = payment.OrderID
	out.PaymentID = payment.ID
	out.Amount = payment.Amount
	out.Currency = strings.ToUpper(strings.TrimSpace(payment.Currency))
	out.ProviderStatus = payment.Status
	out.EventID = eventType + ":" + payment.ID
	return out, nil
}

// VerifyClientSignature checks the signature browser checkout posts back
// after a successful payment. It signs "order_id|payment_id" with the
// key secret.
func (g *Gateway) VerifyClientSignature(orderID, paymentID, signature string) error {
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	signature = strings.TrimSpace(signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return paymentdomain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(g.keySecret))
	_, _ = mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

type webhookEvent struct {
	Event     string         `json:"event"`
	CreatedAt int64          `json:"created_at"`
	Payload   webhookPayload `json:"payload"`
}

type webhookPayload struct {
	Payment struct {
		Entity paymentEntity `json:"entity"`
	} `json:"payment"`
	Order struct {
		Entity orderEntity `json:"entity"`
	} `json:"order"`
}

type paymentEntity struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type orderEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
}

func (g *Gateway) doRequest(ctx context.Context, method, path string, body map[string]any) (orderEntity, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return orderEntity{}, err
		}
		bodyReader = bytes.NewReader(payload)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBaseURL+path, bodyReader)
	if err != nil {
		return orderEntity{}, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return orderEntity{}, fmt.Errorf("%w: %v", paymentdomain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var razorpayErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&razorpayErr); err != nil {
			return orderEntity{}, paymentdomain.ErrUpstream
		}
		message := strings.TrimSpace(razorpayErr.Error.Description)
		if message == "" {
			return orderEntity{}, paymentdomain.ErrUpstream
		}
		return orderEntity{}, fmt.Errorf("%w: %s", paymentdomain.ErrUpstream, message)
	}

	var order orderEntity
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return orderEntity{}, paymentdomain.ErrUpstream
	}
	if order.ID == "" {
		return orderEntity{}, paymentdomain.ErrUpstream
	}
	return order, nil
}

func normalizeStatus(status string) string {
	switch strings.TrimSpace(status) {
	case "paid":
		return paymentdomain.StatusPaid
	default:
		return paymentdomain.StatusPending
	}
}

func timestamp(value int64) time.Time {
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}
