package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/framekart/commerce/internal/config"
	paymentdomain "github.com/framekart/commerce/internal/payment/domain"
)

const apiBaseURL = "https://api.stripe.com"

// signatureTolerance bounds how old a signed webhook timestamp may be.
// Stripe documents 5 minutes for its own SDKs.
const signatureTolerance = 5 * time.Minute

type Gateway struct {
	apiKey        string
	webhookSecret string
	client        *http.Client
}

func New(cfg config.StripeConfig) (*Gateway, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if apiKey == "" || secret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return &Gateway{
		apiKey:        apiKey,
		webhookSecret: secret,
		client:        &http.Client{Timeout: 12 * time.Second},
	}, nil
}

func (g *Gateway) Provider() string {
	return "stripe"
}

func (g *Gateway) CreateSession(ctx context.Context, in paymentdomain.CreateSessionInput) (*paymentdomain.GatewaySession, error) {
	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("success_url", in.SuccessURL)
	values.Set("cancel_url", in.CancelURL)
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", strings.ToLower(in.Currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.Amount, 10))
	values.Set("line_items[0][price_data][product_data][name]", in.Reference)
	for key, value := range in.Metadata {
		values.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	session, err := g.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, in.Reference)
	if err != nil {
		return nil, err
	}
	return &paymentdomain.GatewaySession{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		Status:      normalizeStatus(session.Status, session.PaymentStatus),
	}, nil
}

func (g *Gateway) GetStatus(ctx context.Context, sessionID string) (*paymentdomain.GatewayStatus, error) {
	session, err := g.doRequest(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, "")
	if err != nil {
		return nil, err
	}
	return &paymentdomain.GatewayStatus{
		Status:         normalizeStatus(session.Status, session.PaymentStatus),
		ProviderStatus: rawStatus(session),
		Amount:         session.AmountTotal,
		Currency:       strings.ToUpper(strings.TrimSpace(session.Currency)),
	}, nil
}

func (g *Gateway) Verify(payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedAt, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}
	age := time.Since(time.Unix(signedAt, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return paymentdomain.ErrInvalidSignature
}

func (g *Gateway) Parse(payload []byte) (*paymentdomain.WebhookEvent, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	var status string
	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		status = paymentdomain.StatusPaid
	case "checkout.session.async_payment_succeeded":
		status = paymentdomain.StatusPaid
	case "checkout.session.async_payment_failed":
		status = paymentdomain.StatusFailed
	case "checkout.session.expired":
		status = paymentdomain.StatusCancelled
	default:
		return nil, paymentdomain.ErrEventIgnored
	}

	var session checkoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	// A completed session can still be unpaid for delayed methods.
	if status == paymentdomain.StatusPaid && session.PaymentStatus != "" && session.PaymentStatus != "paid" {
		status = paymentdomain.StatusPending
	}

	return &paymentdomain.WebhookEvent{
		Provider:       "stripe",
		EventID:        event.ID,
		EventType:      event.Type,
		SessionID:      session.ID,
		PaymentID:      session.PaymentIntent,
		Status:         status,
		ProviderStatus: rawStatus(session),
		Amount:         session.AmountTotal,
		Currency:       strings.ToUpper(strings.TrimSpace(session.Currency)),
		OccurredAt:     timestamp(event.Created),
		RawPayload:     payload,
	}, nil
}

type webhookEvent struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	Created int64            `json:"created"`
	Data    webhookEventData `json:"data"`
}

type webhookEventData struct {
	Object json.RawMessage `json:"object"`
}

type checkoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaymentIntent string `json:"payment_intent"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gateway) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
) (checkoutSession, error) {
	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBaseURL+path, bodyReader)
	if err != nil {
		return checkoutSession{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return checkoutSession{}, fmt.Errorf("%w: %v", paymentdomain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return checkoutSession{}, paymentdomain.ErrUpstream
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			return checkoutSession{}, paymentdomain.ErrUpstream
		}
		return checkoutSession{}, fmt.Errorf("%w: %s", paymentdomain.ErrUpstream, message)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return checkoutSession{}, paymentdomain.ErrUpstream
	}
	if session.ID == "" {
		return checkoutSession{}, paymentdomain.ErrUpstream
	}
	return session, nil
}

func rawStatus(session checkoutSession) string {
	if session.PaymentStatus != "" {
		return session.PaymentStatus
	}
	return session.Status
}

func normalizeStatus(status, paymentStatus string) string {
	if paymentStatus == "paid" {
		return paymentdomain.StatusPaid
	}
	switch status {
	case "expired":
		return paymentdomain.StatusCancelled
	default:
		return paymentdomain.StatusPending
	}
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func timestamp(value int64) time.Time {
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}
