package driven

import (
	"context"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// SessionStore holds the signed-in user profile for a session
type SessionStore interface {
	// GetUser returns the user, or nil, nil when nobody is signed in.
	GetUser(ctx context.Context, sessionID string) (*domain.SessionUser, error)

	// SaveUser stores the user for the session
	SaveUser(ctx context.Context, sessionID string, user *domain.SessionUser) error

	// Delete removes the session's user
	Delete(ctx context.Context, sessionID string) error
}
