package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// MockTokenStore implements ports.TokenStore in memory.
type MockTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration

	RevokeError error
	CheckError  error
}

var _ ports.TokenStore = (*MockTokenStore)(nil)

func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{revoked: make(map[string]time.Duration)}
}

func (m *MockTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RevokeError != nil {
		return m.RevokeError
	}
	m.revoked[tokenID] = ttl
	return nil
}

func (m *MockTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckError != nil {
		return false, m.CheckError
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

// TTL returns the revocation lifetime recorded for tokenID.
func (m *MockTokenStore) TTL(tokenID string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl, ok := m.revoked[tokenID]
	return ttl, ok
}
