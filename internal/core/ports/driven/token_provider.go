package driven

import (
	"context"
	"errors"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

var (
	// ErrExchangeFailed indicates a non-2xx token endpoint response or a
	// response without an access token.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrNoUserToken indicates a Slack exchange that granted no user token.
	ErrNoUserToken = errors.New("no user token in response")
)

// OAuthToken is a token endpoint response normalized across providers.
type OAuthToken struct {
	AccessToken  string `masq:"secret"`
	RefreshToken string `masq:"secret"`
	ExpiresIn    int    // Seconds until expiry, 0 when the token does not expire
	TokenType    string // Usually "Bearer"
	Scope        string // Space-separated scopes
}

// TokenRefresher exchanges a refresh token at a provider's token endpoint.
type TokenRefresher interface {
	// Refresh returns a new access token. The response may omit the
	// refresh token when the provider does not rotate it.
	Refresh(ctx context.Context, refreshToken string) (*OAuthToken, error)
}

// OAuthProvider runs the provider side of the authorization-code flow.
// One implementation exists per provider; Google serves several targets.
type OAuthProvider interface {
	TokenRefresher

	// Type returns the provider type.
	Type() domain.ProviderType

	// Configured reports whether client credentials are usable.
	Configured() bool

	// AuthURL builds the authorization URL for target with the CSRF state.
	AuthURL(target domain.OAuthTarget, state string) string

	// Exchange trades an authorization code for tokens.
	// Failures wrap ErrExchangeFailed or ErrNoUserToken.
	Exchange(ctx context.Context, target domain.OAuthTarget, code string) (*OAuthToken, error)
}

// UserInfoProvider fetches the signed-in account's profile.
type UserInfoProvider interface {
	UserInfo(ctx context.Context, accessToken string) (*domain.SessionUser, error)
}
