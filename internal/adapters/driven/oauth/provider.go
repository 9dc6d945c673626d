// Package oauth implements the provider side of the authorization-code
// flow for Google, Slack and Dropbox.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Config holds the OAuth app credentials shared by every provider.
type Config struct {
	domain.ProviderConfig

	// APIBaseURL is this server's public URL; callback paths are appended.
	// Example: "http://localhost:8080"
	APIBaseURL string

	// HTTPClient is used for token and userinfo calls.
	HTTPClient *http.Client
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c Config) redirectURI(target domain.OAuthTarget) string {
	return strings.TrimRight(c.APIBaseURL, "/") + target.CallbackPath()
}

// withClient routes x/oauth2 token requests through client.
func withClient(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// toOAuthToken converts an x/oauth2 token, applying defaultLifetime when the
// provider omitted expires_in.
func toOAuthToken(tok *oauth2.Token, now time.Time, defaultLifetime time.Duration) *driven.OAuthToken {
	expiresIn := int(tok.ExpiresIn)
	if expiresIn <= 0 && !tok.Expiry.IsZero() {
		expiresIn = int(tok.Expiry.Sub(now).Round(time.Second).Seconds())
	}
	if expiresIn <= 0 {
		expiresIn = int(defaultLifetime.Seconds())
	}
	scope, _ := tok.Extra("scope").(string)
	return &driven.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    tok.TokenType,
		Scope:        scope,
	}
}

// isTransportError reports failures that happened before any response.
func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// exchangeError classifies a token endpoint failure. Provider rejections
// wrap ErrExchangeFailed; transport failures are returned as is.
func exchangeError(provider domain.ProviderType, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: %s", driven.ErrExchangeFailed, provider, retrieveErr.ErrorCode)
	}
	if isTransportError(err) {
		return fmt.Errorf("%s token request: %w", provider, err)
	}
	return fmt.Errorf("%w: %s: %w", driven.ErrExchangeFailed, provider, err)
}

// refreshWith runs a refresh_token grant against cfg's token endpoint.
func refreshWith(ctx context.Context, cfg *oauth2.Config, client *http.Client, refreshToken string, defaultLifetime time.Duration) (*driven.OAuthToken, error) {
	start := time.Now()
	src := cfg.TokenSource(withClient(ctx, client), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	out := toOAuthToken(tok, start, defaultLifetime)
	// x/oauth2 copies the old refresh token forward when none is returned
	if out.RefreshToken == refreshToken {
		out.RefreshToken = ""
	}
	return out, nil
}
