package oauth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/slack-go/slack"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure SlackProvider implements the interface.
var _ driven.OAuthProvider = (*SlackProvider)(nil)

// SlackAuthURL is the OAuth v2 consent page.
const SlackAuthURL = "https://slack.com/oauth/v2/authorize"

// slackUserScope is requested as a user scope; search.messages only
// accepts user tokens.
const slackUserScope = "search:read"

// SlackConfig configures the Slack provider.
type SlackConfig struct {
	Config

	AuthURL string
}

// SlackProvider runs oauth.v2.access. Only the authed user's token is kept.
type SlackProvider struct {
	cfg     Config
	authURL string
}

// NewSlackProvider creates the Slack provider.
func NewSlackProvider(cfg SlackConfig) *SlackProvider {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = SlackAuthURL
	}
	return &SlackProvider{cfg: cfg.Config, authURL: authURL}
}

// Type returns the provider type.
func (p *SlackProvider) Type() domain.ProviderType {
	return domain.ProviderSlack
}

// Configured reports whether client credentials are usable.
func (p *SlackProvider) Configured() bool {
	return p.cfg.IsConfigured()
}

// AuthURL builds the consent URL with an empty bot scope.
func (p *SlackProvider) AuthURL(_ domain.OAuthTarget, state string) string {
	params := url.Values{
		"client_id":    {p.cfg.ClientID},
		"scope":        {""},
		"user_scope":   {slackUserScope},
		"redirect_uri": {p.cfg.redirectURI(domain.TargetSlack)},
		"state":        {state},
	}
	return p.authURL + "?" + params.Encode()
}

// Exchange trades an authorization code for the user token.
func (p *SlackProvider) Exchange(ctx context.Context, _ domain.OAuthTarget, code string) (*driven.OAuthToken, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, p.cfg.httpClient(),
		p.cfg.ClientID, p.cfg.ClientSecret, code, p.cfg.redirectURI(domain.TargetSlack))
	if err != nil {
		return nil, slackError(err)
	}

	user := resp.AuthedUser
	if user.AccessToken == "" {
		return nil, fmt.Errorf("%w: slack", driven.ErrNoUserToken)
	}
	return &driven.OAuthToken{
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		ExpiresIn:    user.ExpiresIn,
		TokenType:    "Bearer",
		Scope:        user.Scope,
	}, nil
}

// Refresh renews a rotating user token. Tokens issued without rotation
// never expire and are never refreshed.
func (p *SlackProvider) Refresh(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	resp, err := slack.RefreshOAuthV2TokenContext(ctx, p.cfg.httpClient(),
		p.cfg.ClientID, p.cfg.ClientSecret, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	token := &driven.OAuthToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    "Bearer",
		Scope:        resp.Scope,
	}
	if token.AccessToken == "" {
		token.AccessToken = resp.AuthedUser.AccessToken
		token.RefreshToken = resp.AuthedUser.RefreshToken
		token.ExpiresIn = resp.AuthedUser.ExpiresIn
	}
	return token, nil
}

func slackError(err error) error {
	if isTransportError(err) {
		return fmt.Errorf("slack token request: %w", err)
	}
	return fmt.Errorf("%w: slack: %w", driven.ErrExchangeFailed, err)
}
