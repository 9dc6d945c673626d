package driven

import (
	"context"
	"time"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// OAuthState represents a pending OAuth authorization flow state.
// Used for CSRF protection and to bind the callback to the starting session.
type OAuthState struct {
	// State is a cryptographically random string used for CSRF protection.
	State string `json:"state"`

	// SessionID is the session that started the flow.
	SessionID string `json:"session_id"`

	// Target is the handshake entry point (login, gmail, drive, slack, dropbox).
	Target domain.OAuthTarget `json:"target"`

	// CreatedAt is when the state was created.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the state expires (typically 10 minutes).
	ExpiresAt time.Time `json:"expires_at"`
}

// OAuthStateStore manages OAuth flow state for CSRF protection.
// States are single-use and expire after a short period.
type OAuthStateStore interface {
	// Save stores a new OAuth state.
	Save(ctx context.Context, state *OAuthState) error

	// GetAndDelete atomically retrieves and deletes the state.
	// Returns nil, nil if the state doesn't exist or has expired.
	GetAndDelete(ctx context.Context, state string) (*OAuthState, error)
}
