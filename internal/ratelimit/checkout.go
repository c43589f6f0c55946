package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/framekart/commerce/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyCheckoutUser = "payment:checkout:user:%s"
	keyStatusUser   = "payment:status:user:%s"
	keyPaymentLock  = "payment:lock:user:%s"
	keySessionLock  = "payment:lock:session:%s"
)

// CheckoutLimiter throttles checkout and status polling per user, and
// serializes payment processing with short-lived locks.
type CheckoutLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	checkoutRate  float64
	checkoutBurst int
	statusRate    float64
	statusBurst   int
	lockTTL       time.Duration
}

func NewCheckoutLimiter(cfg config.Config, client *redis.Client) *CheckoutLimiter {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled || client == nil {
		return nil
	}

	lockTTL := time.Duration(limitCfg.PaymentLockTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	return &CheckoutLimiter{
		enabled:       true,
		bucket:        NewTokenBucket(client),
		locker:        NewLocker(client),
		checkoutRate:  limitCfg.CheckoutRate,
		checkoutBurst: limitCfg.CheckoutBurst,
		statusRate:    limitCfg.StatusRate,
		statusBurst:   limitCfg.StatusBurst,
		lockTTL:       lockTTL,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CheckoutLimiter) AllowCheckout(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutUser, strings.TrimSpace(userID)), l.checkoutRate, l.checkoutBurst)
}

func (l *CheckoutLimiter) AllowStatusPoll(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyStatusUser, strings.TrimSpace(userID)), l.statusRate, l.statusBurst)
}

// TryLockPayment guards a user's active checkout so only one session is
// created at a time.
func (l *CheckoutLimiter) TryLockPayment(ctx context.Context, userID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keyPaymentLock, strings.TrimSpace(userID)), l.lockTTL)
}

func (l *CheckoutLimiter) ReleasePayment(ctx context.Context, userID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keyPaymentLock, strings.TrimSpace(userID)), token)
}

// TryLockSession serializes reconciliation of a single checkout session
// across poll and webhook paths.
func (l *CheckoutLimiter) TryLockSession(ctx context.Context, sessionID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keySessionLock, strings.TrimSpace(sessionID)), l.lockTTL)
}

func (l *CheckoutLimiter) ReleaseSession(ctx context.Context, sessionID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keySessionLock, strings.TrimSpace(sessionID)), token)
}
