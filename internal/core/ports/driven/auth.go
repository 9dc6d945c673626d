package driven

import "github.com/tkgathr2/bulk/internal/core/domain"

// AuthAdapter handles the session token cryptographic operations.
// This does NOT handle storage - use SessionStore for session persistence.
type AuthAdapter interface {
	// GenerateToken signs the session claims
	GenerateToken(claims *domain.SessionClaims) (string, error)

	// ParseToken validates a signed token and returns its claims.
	// Returns domain.ErrTokenExpired or domain.ErrTokenInvalid on failure.
	ParseToken(token string) (*domain.SessionClaims, error)
}
