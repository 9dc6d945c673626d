package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// UserInfoURL is Google's OAuth2 userinfo endpoint.
const UserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// UserInfo contains the user's basic profile information from Google.
type UserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// ServiceConfig points an API client at a non-default endpoint.
type ServiceConfig struct {
	// Endpoint overrides the API base path, e.g. for tests.
	Endpoint string

	// HTTPClient is the base client; the access token is layered on top.
	HTTPClient *http.Client
}

// NewTokenSource wraps an already fresh access token. Refresh happens
// before the connector runs, so the source never renews.
func NewTokenSource(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
}

func clientOptions(ts oauth2.TokenSource, cfg ServiceConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Transport: &oauth2.Transport{Source: ts, Base: cfg.HTTPClient.Transport},
			Timeout:   cfg.HTTPClient.Timeout,
		}))
	} else {
		opts = append(opts, option.WithTokenSource(ts))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return opts
}

// NewGmailService creates a Gmail API service using the provided TokenSource.
func NewGmailService(ctx context.Context, ts oauth2.TokenSource, cfg ServiceConfig) (*gmail.Service, error) {
	return gmail.NewService(ctx, clientOptions(ts, cfg)...)
}

// NewDriveService creates a Google Drive API service using the provided TokenSource.
func NewDriveService(ctx context.Context, ts oauth2.TokenSource, cfg ServiceConfig) (*drive.Service, error) {
	return drive.NewService(ctx, clientOptions(ts, cfg)...)
}

// GetUserInfo fetches the user's profile information using an access token.
func GetUserInfo(ctx context.Context, client *http.Client, endpoint, accessToken string) (*UserInfo, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = UserInfoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var userInfo UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if userInfo.Email == "" {
		return nil, fmt.Errorf("user info has no email")
	}
	return &userInfo, nil
}

// SessionUser converts the profile into the signed-in session user.
// Name falls back to the email address.
func (u *UserInfo) SessionUser() *domain.SessionUser {
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return &domain.SessionUser{Email: u.Email, Name: name}
}
