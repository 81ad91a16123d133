package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient keeps revoked token ids and cached advisory text in memory.
type MockRedisClient struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	SetError    error
	GetError    error
	ExistsError error
}

type cacheEntry struct {
	text    string
	expires time.Time
}

func (e cacheEntry) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{entries: make(map[string]cacheEntry)}
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if m.SetError != nil {
		cmd.SetErr(m.SetError)
		return cmd
	}

	e := cacheEntry{text: fmt.Sprint(value)}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()

	cmd.SetVal("OK")
	return cmd
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.GetError != nil {
		cmd.SetErr(m.GetError)
		return cmd
	}

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !e.live(time.Now()) {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(e.text)
	return cmd
}

func (m *MockRedisClient) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.ExistsError != nil {
		cmd.SetErr(m.ExistsError)
		return cmd
	}

	var n int64
	for _, key := range keys {
		if m.HasKey(key) {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

// HasKey reports whether key holds an unexpired value.
func (m *MockRedisClient) HasKey(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return ok && e.live(time.Now())
}

// ExpiresIn returns the remaining lifetime of key, or zero when it has none.
func (m *MockRedisClient) ExpiresIn(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || e.expires.IsZero() {
		return 0
	}
	return time.Until(e.expires)
}
