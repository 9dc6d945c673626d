package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tkgathr2/bulk/internal/adapters/driven/secrets"
	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenStore = (*TokenStore)(nil)

const (
	tokenPrefix = keyPrefix + "tokens:"

	// DefaultSessionTTL keeps a session's keys alive since its last write.
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// TokenStore keeps one hash per session: field = service, value = sealed token.
type TokenStore struct {
	client    *redis.Client
	encryptor *secrets.Encryptor
	ttl       time.Duration
}

// NewTokenStore creates a Redis-backed TokenStore. A zero ttl uses DefaultSessionTTL.
func NewTokenStore(client *redis.Client, encryptor *secrets.Encryptor, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenStore{client: client, encryptor: encryptor, ttl: ttl}
}

func tokenKey(sessionID string) string {
	return tokenPrefix + sessionID
}

// Get returns the token for the service, or nil, nil when none is stored.
func (s *TokenStore) Get(ctx context.Context, sessionID string, service domain.ServiceID) (*domain.TokenData, error) {
	blob, err := s.client.HGet(ctx, tokenKey(sessionID), string(service)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var token domain.TokenData
	if err := s.encryptor.Decrypt(blob, &token); err != nil {
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}
	return &token, nil
}

// Set stores the token and renews the session TTL.
func (s *TokenStore) Set(ctx context.Context, sessionID string, service domain.ServiceID, token *domain.TokenData) error {
	blob, err := s.encryptor.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	key := tokenKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, string(service), blob)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Remove deletes the token for one service.
func (s *TokenStore) Remove(ctx context.Context, sessionID string, service domain.ServiceID) error {
	if err := s.client.HDel(ctx, tokenKey(sessionID), string(service)).Err(); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// RemoveAll deletes every token of the session.
func (s *TokenStore) RemoveAll(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, tokenKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to remove tokens: %w", err)
	}
	return nil
}
