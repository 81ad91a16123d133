// Package cache keeps short-lived state in Redis: revoked session tokens and
// cached advisory text.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// RedisClient is the part of *redis.Client this package uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

const revokedPrefix = "revoked:"

// TokenBlacklist records revoked token ids until their natural expiry.
type TokenBlacklist struct {
	client RedisClient
	cb     *gobreaker.CircuitBreaker
}

var _ ports.TokenStore = (*TokenBlacklist)(nil)

func NewTokenBlacklist(client RedisClient, cb *gobreaker.CircuitBreaker) *TokenBlacklist {
	return &TokenBlacklist{client: client, cb: cb}
}

func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	_, err := execute(b.cb, func() (interface{}, error) {
		return nil, b.client.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err()
	})
	return err
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	res, err := execute(b.cb, func() (interface{}, error) {
		return b.client.Exists(ctx, revokedPrefix+tokenID).Result()
	})
	if err != nil {
		return false, err
	}
	return res.(int64) > 0, nil
}

// TextCache stores strings under a key prefix with a fixed lifetime.
type TextCache struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewTextCache(client RedisClient, prefix string, ttl time.Duration) *TextCache {
	return &TextCache{client: client, prefix: prefix, ttl: ttl}
}

// Get reports a miss as ok=false with no error.
func (c *TextCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *TextCache) Put(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, c.prefix+key, value, c.ttl).Err()
}

func execute(cb *gobreaker.CircuitBreaker, fn func() (interface{}, error)) (interface{}, error) {
	if cb == nil {
		return fn()
	}
	return cb.Execute(fn)
}
