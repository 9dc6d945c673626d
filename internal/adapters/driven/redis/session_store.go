package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

const sessionUserPrefix = keyPrefix + "session:user:"

// SessionStore implements driven.SessionStore using Redis.
// Entries expire through Redis TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a new Redis-backed SessionStore
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// GetUser returns the signed-in user, or nil, nil
func (s *SessionStore) GetUser(ctx context.Context, sessionID string) (*domain.SessionUser, error) {
	data, err := s.client.Get(ctx, sessionUserPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session user: %w", err)
	}

	var user domain.SessionUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session user: %w", err)
	}
	return &user, nil
}

// SaveUser stores the user with the session TTL
func (s *SessionStore) SaveUser(ctx context.Context, sessionID string, user *domain.SessionUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session user: %w", err)
	}
	if err := s.client.Set(ctx, sessionUserPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session user: %w", err)
	}
	return nil
}

// Delete removes the session's user
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionUserPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session user: %w", err)
	}
	return nil
}
