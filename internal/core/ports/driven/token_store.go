package driven

import (
	"context"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// TokenStore persists OAuth tokens per session and service.
// Tokens are never shared across sessions.
type TokenStore interface {
	// Get returns the token for the service, or nil, nil when none is stored.
	Get(ctx context.Context, sessionID string, service domain.ServiceID) (*domain.TokenData, error)

	// Set stores or replaces the token. Concurrent writers: last writer wins.
	Set(ctx context.Context, sessionID string, service domain.ServiceID, token *domain.TokenData) error

	// Remove deletes the token. Removing a missing token is not an error.
	Remove(ctx context.Context, sessionID string, service domain.ServiceID) error

	// RemoveAll deletes every token held by the session.
	RemoveAll(ctx context.Context, sessionID string) error
}
