package driving

import (
	"context"
	"errors"
	"fmt"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// OAuthService drives the per-provider authorization-code handshakes.
type OAuthService interface {
	// Authorize starts a handshake and returns the provider URL to redirect to.
	// Returns domain.ErrProviderNotConfigured when client credentials are missing.
	Authorize(ctx context.Context, sessionID string, target domain.OAuthTarget) (*AuthorizeResponse, error)

	// Callback completes a handshake. It never fails: every outcome is a
	// redirect, failures carry an error tag.
	Callback(ctx context.Context, sessionID string, target domain.OAuthTarget, req CallbackRequest) *CallbackResponse

	// Me reports the signed-in Google user of the session
	Me(ctx context.Context, sessionID string) (*MeResponse, error)

	// Logout forgets the user, tokens and history of the session
	Logout(ctx context.Context, sessionID string) error
}

// AuthorizeResponse contains the authorization URL and state.
type AuthorizeResponse struct {
	// AuthorizationURL is the URL to redirect the user to for authorization.
	AuthorizationURL string `json:"authorization_url"`

	// State is the CSRF token that will be returned in the callback.
	State string `json:"state"`

	// ExpiresAt is when the authorization state expires (typically 10 minutes).
	ExpiresAt string `json:"expires_at"`
}

// CallbackRequest represents the OAuth callback from the provider.
type CallbackRequest struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CallbackResponse is the terminal state of a handshake and where to send the browser.
type CallbackResponse struct {
	Target      domain.OAuthTarget
	State       domain.HandshakeState
	ErrorTag    domain.OAuthErrorTag
	RedirectURL string
}

// Succeeded reports whether the handshake connected the target
func (r *CallbackResponse) Succeeded() bool {
	return r.State == domain.HandshakeConnected
}

// MeResponse is returned by GET /auth/google/me.
// @Description Signed-in user of the current session
type MeResponse struct {
	Authenticated bool                `json:"authenticated"`
	User          *domain.SessionUser `json:"user"`
}

// OAuth service errors
var (
	// ErrOAuthProviderNotFound indicates no provider is registered for the target.
	ErrOAuthProviderNotFound = errors.New("oauth provider not found")
)

// OAuthError represents an OAuth-specific error.
type OAuthError struct {
	Tag         domain.OAuthErrorTag
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Tag, e.Description)
	}
	return string(e.Tag)
}
