package mocks

import (
	"context"
	"sync"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// MockSessionStore is a mock implementation of SessionStore for testing
type MockSessionStore struct {
	mu    sync.RWMutex
	users map[string]*domain.SessionUser
}

// NewMockSessionStore creates a new MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		users: make(map[string]*domain.SessionUser),
	}
}

func (m *MockSessionStore) GetUser(ctx context.Context, sessionID string) (*domain.SessionUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[sessionID], nil
}

func (m *MockSessionStore) SaveUser(ctx context.Context, sessionID string, user *domain.SessionUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[sessionID] = user
	return nil
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, sessionID)
	return nil
}
