// Package memory holds in-process stores. State is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore maps session → service → token.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]map[domain.ServiceID]*domain.TokenData
}

// NewTokenStore creates an empty TokenStore.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]map[domain.ServiceID]*domain.TokenData)}
}

// Get returns a copy of the token, or nil, nil.
func (s *TokenStore) Get(_ context.Context, sessionID string, service domain.ServiceID) (*domain.TokenData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[sessionID][service].Clone(), nil
}

// Set stores a copy of the token.
func (s *TokenStore) Set(_ context.Context, sessionID string, service domain.ServiceID, token *domain.TokenData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byService, ok := s.tokens[sessionID]
	if !ok {
		byService = make(map[domain.ServiceID]*domain.TokenData)
		s.tokens[sessionID] = byService
	}
	byService[service] = token.Clone()
	return nil
}

// Remove deletes one token.
func (s *TokenStore) Remove(_ context.Context, sessionID string, service domain.ServiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens[sessionID], service)
	return nil
}

// RemoveAll deletes every token of the session.
func (s *TokenStore) RemoveAll(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}
