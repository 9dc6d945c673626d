package driving

import (
	"context"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// TokenService owns the token lifecycle that gates each service search
type TokenService interface {
	// EnsureFreshToken returns a usable access token, refreshing it first when
	// it is within the safety margin of expiry.
	// Errors: domain.ErrNotConnected, domain.ErrNoRefreshToken, domain.ErrRefreshFailed.
	EnsureFreshToken(ctx context.Context, sessionID string, service domain.ServiceID) (string, error)

	// Status derives the connection status from the stored token
	Status(ctx context.Context, sessionID string, service domain.ServiceID) (domain.ConnectionStatus, error)
}

// ConnectionService lists and manages per-session service connections
type ConnectionService interface {
	// List returns every service with its live connection status
	List(ctx context.Context, sessionID string) ([]domain.ServiceConnection, error)

	// Get returns one service's connection entry
	Get(ctx context.Context, sessionID string, service domain.ServiceID) (*domain.ServiceConnection, error)

	// Disconnect removes the stored token and returns the updated entry
	Disconnect(ctx context.Context, sessionID string, service domain.ServiceID) (*domain.ServiceConnection, error)
}
