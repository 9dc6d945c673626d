package mocks

import (
	"context"
	"sync"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// MockTokenStore is a mock implementation of TokenStore for testing
type MockTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]map[domain.ServiceID]*domain.TokenData
	sets   int

	GetFn func(sessionID string, service domain.ServiceID) (*domain.TokenData, error)
	SetFn func(sessionID string, service domain.ServiceID, token *domain.TokenData) error
}

// NewMockTokenStore creates a new MockTokenStore
func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{
		tokens: make(map[string]map[domain.ServiceID]*domain.TokenData),
	}
}

func (m *MockTokenStore) Get(ctx context.Context, sessionID string, service domain.ServiceID) (*domain.TokenData, error) {
	if m.GetFn != nil {
		return m.GetFn(sessionID, service)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[sessionID][service].Clone(), nil
}

func (m *MockTokenStore) Set(ctx context.Context, sessionID string, service domain.ServiceID, token *domain.TokenData) error {
	if m.SetFn != nil {
		return m.SetFn(sessionID, service, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens[sessionID] == nil {
		m.tokens[sessionID] = make(map[domain.ServiceID]*domain.TokenData)
	}
	m.tokens[sessionID][service] = token.Clone()
	m.sets++
	return nil
}

func (m *MockTokenStore) Remove(ctx context.Context, sessionID string, service domain.ServiceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens[sessionID], service)
	return nil
}

func (m *MockTokenStore) RemoveAll(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sessionID)
	return nil
}

// SetCount returns how many writes reached the store
func (m *MockTokenStore) SetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
