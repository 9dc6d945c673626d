package domain

import (
	"fmt"
	"time"
)

// SessionUser is the Google account signed in to a session
type SessionUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionClaims represents the signed session cookie payload
type SessionClaims struct {
	SessionID string `json:"sid"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IsExpired checks if the session claims have expired
func (c *SessionClaims) IsExpired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

// OAuthTarget names one handshake entry point.
// Login signs a user in; the others connect a searchable service.
type OAuthTarget string

const (
	TargetLogin   OAuthTarget = "login"
	TargetGmail   OAuthTarget = "gmail"
	TargetDrive   OAuthTarget = "drive"
	TargetSlack   OAuthTarget = "slack"
	TargetDropbox OAuthTarget = "dropbox"
)

// ParseOAuthTarget validates a raw target name
func ParseOAuthTarget(raw string) (OAuthTarget, error) {
	switch t := OAuthTarget(raw); t {
	case TargetLogin, TargetGmail, TargetDrive, TargetSlack, TargetDropbox:
		return t, nil
	}
	return "", fmt.Errorf("%w: oauth target %q", ErrUnknownService, raw)
}

// Provider returns the OAuth provider behind the target
func (t OAuthTarget) Provider() ProviderType {
	switch t {
	case TargetSlack:
		return ProviderSlack
	case TargetDropbox:
		return ProviderDropbox
	default:
		return ProviderGoogle
	}
}

// Service returns the service connected by the target; false for login
func (t OAuthTarget) Service() (ServiceID, bool) {
	if t == TargetLogin {
		return "", false
	}
	return ServiceID(t), true
}

// TargetForService returns the handshake target that connects s
func TargetForService(s ServiceID) OAuthTarget {
	return OAuthTarget(s)
}

// OAuthErrorTag is the machine-readable failure carried on error redirects
type OAuthErrorTag string

const (
	OAuthErrNoCode              OAuthErrorTag = "no_code"
	OAuthErrInvalidState        OAuthErrorTag = "invalid_state"
	OAuthErrTokenExchangeFailed OAuthErrorTag = "token_exchange_failed"
	OAuthErrNoUserToken         OAuthErrorTag = "no_user_token"
	OAuthErrAuthFailed          OAuthErrorTag = "auth_failed"
	OAuthErrLoginFailed         OAuthErrorTag = "login_failed"
)

// HandshakeState is a named state of the OAuth handshake
type HandshakeState string

const (
	HandshakeUnconfigured     HandshakeState = "unconfigured"
	HandshakeAuthorizeIssued  HandshakeState = "authorize_redirect_issued"
	HandshakeCallbackReceived HandshakeState = "callback_received"
	HandshakeTokenExchanged   HandshakeState = "token_exchanged"
	HandshakeExchangeFailed   HandshakeState = "exchange_failed"
	HandshakeConnected        HandshakeState = "connected"
	HandshakeErrorRedirect    HandshakeState = "error_redirect"
)

// AuthorizePath is the route that starts the handshake for t
func (t OAuthTarget) AuthorizePath() string {
	switch t {
	case TargetLogin:
		return "/auth/google/login"
	case TargetGmail, TargetDrive:
		return "/auth/google/" + string(t) + "/authorize"
	default:
		return "/auth/" + string(t) + "/authorize"
	}
}

// CallbackPath is the redirect URI path registered with the provider for t
func (t OAuthTarget) CallbackPath() string {
	switch t {
	case TargetLogin:
		return "/auth/google/login/callback"
	case TargetGmail, TargetDrive:
		return "/auth/google/" + string(t) + "/callback"
	default:
		return "/auth/" + string(t) + "/callback"
	}
}
