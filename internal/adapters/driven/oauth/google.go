package oauth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/tkgathr2/bulk/internal/adapters/driven/connectors/google"
	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure GoogleProvider implements the interfaces.
var (
	_ driven.OAuthProvider    = (*GoogleProvider)(nil)
	_ driven.UserInfoProvider = (*GoogleProvider)(nil)
)

// Google OAuth defaults.
const (
	GoogleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL = "https://oauth2.googleapis.com/token"

	googleDefaultLifetime = 3600 * time.Second
)

var (
	googleLoginScopes = []string{"openid", "email", "profile"}

	googleServiceScopes = map[domain.OAuthTarget]string{
		domain.TargetGmail: "https://www.googleapis.com/auth/gmail.readonly",
		domain.TargetDrive: "https://www.googleapis.com/auth/drive.readonly",
	}
)

// GoogleConfig configures the Google provider.
type GoogleConfig struct {
	Config

	// Endpoint overrides, e.g. for tests.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// GoogleProvider serves login, Gmail and Drive. Credentials go in the
// request body.
type GoogleProvider struct {
	cfg         Config
	endpoint    oauth2.Endpoint
	userInfoURL string
}

// NewGoogleProvider creates the Google provider.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := oauth2.Endpoint{
		AuthURL:   GoogleAuthURL,
		TokenURL:  GoogleTokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = google.UserInfoURL
	}
	return &GoogleProvider{cfg: cfg.Config, endpoint: endpoint, userInfoURL: userInfoURL}
}

// Type returns the provider type.
func (p *GoogleProvider) Type() domain.ProviderType {
	return domain.ProviderGoogle
}

// Configured reports whether client credentials are usable.
func (p *GoogleProvider) Configured() bool {
	return p.cfg.IsConfigured()
}

func (p *GoogleProvider) oauth2Config(target domain.OAuthTarget) *oauth2.Config {
	scopes := append([]string{}, googleLoginScopes...)
	if scope, ok := googleServiceScopes[target]; ok {
		scopes = append(scopes, scope)
	}
	return &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Endpoint:     p.endpoint,
		RedirectURL:  p.cfg.redirectURI(target),
		Scopes:       scopes,
	}
}

// AuthURL builds the consent URL. Offline access with a forced consent
// prompt so Google always returns a refresh token.
func (p *GoogleProvider) AuthURL(target domain.OAuthTarget, state string) string {
	return p.oauth2Config(target).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for tokens.
func (p *GoogleProvider) Exchange(ctx context.Context, target domain.OAuthTarget, code string) (*driven.OAuthToken, error) {
	start := time.Now()
	tok, err := p.oauth2Config(target).Exchange(withClient(ctx, p.cfg.httpClient()), code)
	if err != nil {
		return nil, exchangeError(domain.ProviderGoogle, err)
	}
	return toOAuthToken(tok, start, googleDefaultLifetime), nil
}

// Refresh exchanges a refresh token. Google does not rotate refresh tokens.
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	return refreshWith(ctx, p.oauth2Config(domain.TargetLogin), p.cfg.httpClient(), refreshToken, googleDefaultLifetime)
}

// UserInfo fetches the signed-in account's profile.
func (p *GoogleProvider) UserInfo(ctx context.Context, accessToken string) (*domain.SessionUser, error) {
	info, err := google.GetUserInfo(ctx, p.cfg.httpClient(), p.userInfoURL, accessToken)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	return info.SessionUser(), nil
}
