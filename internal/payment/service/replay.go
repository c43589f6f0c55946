package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const replayMarkerTTL = 7 * 24 * time.Hour

// markerStore is the slice of the redis client the guard uses.
type markerStore interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ReplayGuard drops webhook deliveries whose event ID was already
// processed. Checking and marking are separate so an event whose
// processing fails is never marked; the provider's retry then gets a
// clean run. It is best effort: without redis, or on redis errors,
// every delivery counts as first so the attach CAS stays the real
// idempotency barrier.
type ReplayGuard struct {
	store markerStore
	log   *zap.Logger
}

func NewReplayGuard(client *redis.Client, log *zap.Logger) *ReplayGuard {
	g := &ReplayGuard{log: log.Named("payment.replay")}
	if client != nil {
		g.store = client
	}
	return g
}

// Seen reports whether the event was already processed to completion.
func (g *ReplayGuard) Seen(ctx context.Context, provider, eventID string) bool {
	if g == nil || g.store == nil || eventID == "" {
		return false
	}

	n, err := g.store.Exists(ctx, markerKey(provider, eventID)).Result()
	if err != nil {
		g.log.Warn("replay marker unavailable", zap.Error(err))
		return false
	}
	return n > 0
}

// Mark records the event as processed. Call only after its side
// effects committed.
func (g *ReplayGuard) Mark(ctx context.Context, provider, eventID string) {
	if g == nil || g.store == nil || eventID == "" {
		return
	}

	if err := g.store.Set(ctx, markerKey(provider, eventID), 1, replayMarkerTTL).Err(); err != nil {
		g.log.Warn("replay marker not written", zap.Error(err))
	}
}

func markerKey(provider, eventID string) string {
	return fmt.Sprintf("payment:webhook:event:%s:%s", provider, eventID)
}
