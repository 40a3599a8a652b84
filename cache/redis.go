package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/officegrid/sentinel/entitlement"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
)

// Compile-time interface check.
var _ entitlement.Cache = (*Redis)(nil)

// Redis is a grant cache backed by Redis, for deployments where multiple
// instances must see invalidations from each other. Entries are JSON grant
// rows under "<prefix>:<office>|<group>" with a server-side TTL.
//
// Redis failures degrade to cache misses; the evaluator falls through to
// the store and the error is logged, never returned.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the server-side entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithRedisPrefix sets the key namespace prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisLogger sets the logger for degraded-mode warnings.
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = logger }
}

// NewRedis creates a Redis-backed grant cache.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    time.Minute,
		prefix: "sentinel:grant",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetGrant returns the cached grant for the (office, group) pair.
func (r *Redis) GetGrant(ctx context.Context, officeID string, groupID id.FeatureGroupID) (*grant.Grant, bool) {
	data, err := r.client.Get(ctx, r.key(officeID, groupID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var g grant.Grant
	if err := json.Unmarshal(data, &g); err != nil {
		// Corrupt entry; drop it so the next write repairs the key.
		r.client.Del(ctx, r.key(officeID, groupID))
		return nil, false
	}
	return &g, true
}

// SetGrant caches a grant row.
func (r *Redis) SetGrant(ctx context.Context, g *grant.Grant) {
	if g == nil {
		return
	}
	data, err := json.Marshal(g)
	if err != nil {
		r.logger.Warn("redis cache marshal failed", slog.String("error", err.Error()))
		return
	}
	if err := r.client.Set(ctx, r.key(g.OfficeID, g.FeatureGroupID), data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis cache write failed", slog.String("error", err.Error()))
	}
}

// Invalidate removes the cached grant for the pair.
func (r *Redis) Invalidate(ctx context.Context, officeID string, groupID id.FeatureGroupID) {
	if err := r.client.Del(ctx, r.key(officeID, groupID)).Err(); err != nil {
		r.logger.Warn("redis cache invalidate failed", slog.String("error", err.Error()))
	}
}

func (r *Redis) key(officeID string, groupID id.FeatureGroupID) string {
	return r.prefix + ":" + grantKey(officeID, groupID)
}
