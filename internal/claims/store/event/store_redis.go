package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"presence/internal/claims/models"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "presence_event_cache_lookups_total",
	Help: "Event cache lookups by key kind and result",
}, []string{"kind", "result"})

const (
	tokenKeyPrefix  = "presence:event:token:"
	ledgerKeyPrefix = "presence:event:ledger:"

	defaultCacheTTL = 15 * time.Minute
)

// Store is the event persistence contract the cache decorates.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindByClaimToken(ctx context.Context, token string) (*models.Event, error)
	FindByLedgerEventID(ctx context.Context, ledgerEventID string) (*models.Event, error)
}

// RedisCache is a read-through cache in front of a Store. Events are immutable
// once stored, so entries are never invalidated and only age out by TTL.
// Cache errors degrade to the backing store.
type RedisCache struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
}

// RedisCacheOption configures a RedisCache instance.
type RedisCacheOption func(*RedisCache)

// WithCacheTTL overrides how long cached events live.
func WithCacheTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewRedisCache wraps next with a Redis read-through cache.
func NewRedisCache(next Store, client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{next: next, client: client, ttl: defaultCacheTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Create writes through to the backing store, then primes the cache.
func (c *RedisCache) Create(ctx context.Context, e *models.Event) error {
	if err := c.next.Create(ctx, e); err != nil {
		return err
	}
	c.prime(ctx, e)
	return nil
}

func (c *RedisCache) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return c.next.FindByID(ctx, id)
}

func (c *RedisCache) FindByClaimToken(ctx context.Context, token string) (*models.Event, error) {
	return c.readThrough(ctx, "token", tokenKeyPrefix+token, func() (*models.Event, error) {
		return c.next.FindByClaimToken(ctx, token)
	})
}

func (c *RedisCache) FindByLedgerEventID(ctx context.Context, ledgerEventID string) (*models.Event, error) {
	return c.readThrough(ctx, "ledger", ledgerKeyPrefix+ledgerEventID, func() (*models.Event, error) {
		return c.next.FindByLedgerEventID(ctx, ledgerEventID)
	})
}

func (c *RedisCache) readThrough(ctx context.Context, kind, key string, load func() (*models.Event, error)) (*models.Event, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var e models.Event
		if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil {
			cacheLookups.WithLabelValues(kind, "hit").Inc()
			return &e, nil
		}
		cacheLookups.WithLabelValues(kind, "corrupt").Inc()
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues(kind, "miss").Inc()
	default:
		cacheLookups.WithLabelValues(kind, "error").Inc()
	}

	e, err := load()
	if err != nil {
		return nil, err
	}
	c.prime(ctx, e)
	return e, nil
}

// prime is best effort; a failed write only costs a later miss.
func (c *RedisCache) prime(ctx context.Context, e *models.Event) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, tokenKeyPrefix+e.ClaimToken, raw, c.ttl)
	pipe.Set(ctx, ledgerKeyPrefix+e.LedgerEventID, raw, c.ttl)
	_, _ = pipe.Exec(ctx)
}
