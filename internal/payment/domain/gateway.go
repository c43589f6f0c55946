package domain

import (
	"context"
	"net/http"
	"time"
)

// CreateSessionInput carries everything a gateway needs to open a hosted
// checkout session. Amount is in minor units.
type CreateSessionInput struct {
	Reference  string
	Amount     int64
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// GatewaySession is the provider's view of a freshly created session.
type GatewaySession struct {
	SessionID   string
	CheckoutURL string
	Status      string
}

// GatewayStatus is a provider's answer to a status poll. Status is
// normalized; ProviderStatus is the provider's raw wording.
type GatewayStatus struct {
	Status         string
	ProviderStatus string
	Amount         int64
	Currency       string
}

// WebhookEvent is the canonical payment event parsed by gateway
// adapters. Status is one of the normalized session statuses.
type WebhookEvent struct {
	Provider       string
	EventID        string
	EventType      string
	SessionID      string
	PaymentID      string
	Status         string
	ProviderStatus string
	Amount         int64
	Currency       string
	OccurredAt     time.Time
	RawPayload     []byte
}

// Gateway is the port each payment provider implements. Adapters never
// touch the database; they translate between provider wire formats and
// the normalized types above.
type Gateway interface {
	Provider() string
	CreateSession(ctx context.Context, in CreateSessionInput) (*GatewaySession, error)
	GetStatus(ctx context.Context, sessionID string) (*GatewayStatus, error)
	Verify(payload []byte, headers http.Header) error
	Parse(payload []byte) (*WebhookEvent, error)
}

// ClientSignatureVerifier is implemented by gateways whose browser
// checkout hands the client a signature to post back for confirmation.
type ClientSignatureVerifier interface {
	VerifyClientSignature(orderID, paymentID, signature string) error
}
