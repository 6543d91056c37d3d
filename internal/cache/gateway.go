package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/store"
)

// Gateway is the single TTL cache surface for the analyzer and assembler.
// Store failures on the read path degrade to a miss so an unhealthy cache
// never blocks a live fetch. Writes are idempotent upserts keyed by the
// composite key; concurrent writers resolve by last-write-wins.
type Gateway struct {
	store  store.Store
	policy TTLPolicy
	now    func() time.Time
}

// NewGateway creates a Gateway over the store with the given TTL policy.
func NewGateway(st store.Store, policy TTLPolicy) *Gateway {
	if policy == nil {
		policy = DefaultTTLPolicy()
	}
	return &Gateway{store: st, policy: policy, now: time.Now}
}

// WithNow sets a fixed clock for testing TTL boundaries.
func (g *Gateway) WithNow(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Policy returns the gateway's TTL policy.
func (g *Gateway) Policy() TTLPolicy {
	return g.policy
}

// Get returns the cached entry for the key, or nil on miss, expiry, or
// store failure.
func (g *Gateway) Get(ctx context.Context, key Key) *model.CacheEntry {
	entry, err := g.store.GetCachedMetric(ctx, key.String())
	if err != nil {
		zap.L().Warn("cache: read failed, degrading to miss",
			zap.String("key", key.String()),
			zap.Error(err),
		)
		return nil
	}
	if entry == nil || !entry.Valid(g.now()) {
		return nil
	}
	return entry
}

// Set marshals the payload and upserts it under the key with the kind's
// TTL. Last writer wins.
func (g *Gateway) Set(ctx context.Context, key Key, payload any, source string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "cache: marshal payload")
	}

	now := g.now().UTC()
	entry := &model.CacheEntry{
		ID:        uuid.New().String(),
		Key:       key.String(),
		Payload:   data,
		Source:    source,
		CreatedAt: now,
		ExpiresAt: now.Add(g.policy.TTL(key.Kind)),
	}
	if err := g.store.SetCachedMetric(ctx, entry); err != nil {
		return eris.Wrapf(err, "cache: set %s", key.String())
	}
	return nil
}

// Invalidate evicts the key. Used by forced-refresh requests.
func (g *Gateway) Invalidate(ctx context.Context, key Key) error {
	if err := g.store.DeleteCachedMetric(ctx, key.String()); err != nil {
		return eris.Wrapf(err, "cache: invalidate %s", key.String())
	}
	return nil
}

// AgeMinutes returns how many whole minutes old an entry is.
func (g *Gateway) AgeMinutes(entry *model.CacheEntry) int {
	return int(g.now().Sub(entry.CreatedAt) / time.Minute)
}
