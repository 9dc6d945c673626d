package memory

import (
	"context"
	"sync"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps the signed-in user per session.
type SessionStore struct {
	mu    sync.RWMutex
	users map[string]domain.SessionUser
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{users: make(map[string]domain.SessionUser)}
}

func (s *SessionStore) GetUser(_ context.Context, sessionID string) (*domain.SessionUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[sessionID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *SessionStore) SaveUser(_ context.Context, sessionID string, user *domain.SessionUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[sessionID] = *user
	return nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, sessionID)
	return nil
}
