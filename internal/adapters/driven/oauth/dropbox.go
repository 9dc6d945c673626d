package oauth

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure DropboxProvider implements the interface.
var _ driven.OAuthProvider = (*DropboxProvider)(nil)

// Dropbox OAuth defaults.
const (
	DropboxAuthURL  = "https://www.dropbox.com/oauth2/authorize"
	DropboxTokenURL = "https://api.dropboxapi.com/oauth2/token"

	dropboxDefaultLifetime = 14400 * time.Second
)

// DropboxConfig configures the Dropbox provider.
type DropboxConfig struct {
	Config

	AuthURL  string
	TokenURL string
}

// DropboxProvider authenticates with HTTP Basic client credentials.
type DropboxProvider struct {
	cfg    Config
	oauth2 *oauth2.Config
}

// NewDropboxProvider creates the Dropbox provider.
func NewDropboxProvider(cfg DropboxConfig) *DropboxProvider {
	endpoint := oauth2.Endpoint{
		AuthURL:   DropboxAuthURL,
		TokenURL:  DropboxTokenURL,
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	return &DropboxProvider{
		cfg: cfg.Config,
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.redirectURI(domain.TargetDropbox),
		},
	}
}

// Type returns the provider type.
func (p *DropboxProvider) Type() domain.ProviderType {
	return domain.ProviderDropbox
}

// Configured reports whether client credentials are usable.
func (p *DropboxProvider) Configured() bool {
	return p.cfg.IsConfigured()
}

// AuthURL builds the consent URL requesting a refresh token.
func (p *DropboxProvider) AuthURL(_ domain.OAuthTarget, state string) string {
	return p.oauth2.AuthCodeURL(state, oauth2.SetAuthURLParam("token_access_type", "offline"))
}

// Exchange trades an authorization code for tokens.
func (p *DropboxProvider) Exchange(ctx context.Context, _ domain.OAuthTarget, code string) (*driven.OAuthToken, error) {
	start := time.Now()
	tok, err := p.oauth2.Exchange(withClient(ctx, p.cfg.httpClient()), code)
	if err != nil {
		return nil, exchangeError(domain.ProviderDropbox, err)
	}
	return toOAuthToken(tok, start, dropboxDefaultLifetime), nil
}

// Refresh exchanges a refresh token for a new short-lived access token.
func (p *DropboxProvider) Refresh(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	return refreshWith(ctx, p.oauth2, p.cfg.httpClient(), refreshToken, dropboxDefaultLifetime)
}
