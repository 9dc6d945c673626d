package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
	"github.com/tkgathr2/bulk/internal/core/ports/driving"
)

// Ensure oauthService implements OAuthService
var _ driving.OAuthService = (*oauthService)(nil)

// DefaultOAuthStateTTL bounds how long an authorize redirect stays valid
const DefaultOAuthStateTTL = 10 * time.Minute

// OAuthServiceConfig holds configuration for the OAuth service.
type OAuthServiceConfig struct {
	// Providers are keyed by their Type().
	Providers []driven.OAuthProvider

	// StateStore manages OAuth flow state.
	StateStore driven.OAuthStateStore

	// Tokens receives the token of a connected service.
	Tokens driven.TokenStore

	// Sessions receives the signed-in user after a login handshake.
	Sessions driven.SessionStore

	// History is cleared on logout (optional).
	History driven.HistoryStore

	// WebBaseURL is the browser application that callbacks redirect to.
	// Example: "http://localhost:3000"
	WebBaseURL string

	StateTTL time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// oauthService implements the OAuthService interface.
type oauthService struct {
	providers  map[domain.ProviderType]driven.OAuthProvider
	stateStore driven.OAuthStateStore
	tokens     driven.TokenStore
	sessions   driven.SessionStore
	history    driven.HistoryStore
	webBaseURL string
	stateTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(cfg OAuthServiceConfig) driving.OAuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = DefaultOAuthStateTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	providers := make(map[domain.ProviderType]driven.OAuthProvider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers[p.Type()] = p
	}

	return &oauthService{
		providers:  providers,
		stateStore: cfg.StateStore,
		tokens:     cfg.Tokens,
		sessions:   cfg.Sessions,
		history:    cfg.History,
		webBaseURL: strings.TrimRight(cfg.WebBaseURL, "/"),
		stateTTL:   ttl,
		logger:     logger,
		now:        now,
	}
}

// Authorize starts an OAuth authorization flow.
// It stores single-use state bound to the session and returns the provider URL.
func (s *oauthService) Authorize(ctx context.Context, sessionID string, target domain.OAuthTarget) (*driving.AuthorizeResponse, error) {
	provider, ok := s.providers[target.Provider()]
	if !ok {
		return nil, driving.ErrOAuthProviderNotFound
	}
	if !provider.Configured() {
		s.logHandshake(target, domain.HandshakeUnconfigured, "")
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotConfigured, provider.Type())
	}

	// Generate state (CSRF protection)
	state, err := generateRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(s.stateTTL)
	if err := s.stateStore.Save(ctx, &driven.OAuthState{
		State:     state,
		SessionID: sessionID,
		Target:    target,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("save oauth state: %w", err)
	}

	s.logHandshake(target, domain.HandshakeAuthorizeIssued, "")
	return &driving.AuthorizeResponse{
		AuthorizationURL: provider.AuthURL(target, state),
		State:            state,
		ExpiresAt:        expiresAt.Format(time.RFC3339),
	}, nil
}

// Callback handles the OAuth callback from the provider.
// Every path ends in a redirect: connected, or error_redirect with a tag.
func (s *oauthService) Callback(ctx context.Context, sessionID string, target domain.OAuthTarget, req driving.CallbackRequest) *driving.CallbackResponse {
	s.logHandshake(target, domain.HandshakeCallbackReceived, "")

	// Provider-side denial or a missing code
	if req.Error != "" || req.Code == "" {
		return s.fail(target, domain.HandshakeErrorRedirect, domain.OAuthErrNoCode, req.Error)
	}

	// Validate and consume state (single-use)
	oauthState, err := s.stateStore.GetAndDelete(ctx, req.State)
	if err != nil {
		return s.fail(target, domain.HandshakeErrorRedirect, failureTag(target, domain.OAuthErrAuthFailed), err.Error())
	}
	if oauthState == nil || oauthState.Target != target || oauthState.SessionID != sessionID {
		return s.fail(target, domain.HandshakeErrorRedirect, domain.OAuthErrInvalidState, "")
	}

	provider, ok := s.providers[target.Provider()]
	if !ok || !provider.Configured() {
		return s.fail(target, domain.HandshakeErrorRedirect, failureTag(target, domain.OAuthErrAuthFailed), "provider not configured")
	}

	token, err := provider.Exchange(ctx, target, req.Code)
	if err != nil {
		var tag domain.OAuthErrorTag
		switch {
		case errors.Is(err, driven.ErrNoUserToken):
			tag = domain.OAuthErrNoUserToken
		case errors.Is(err, driven.ErrExchangeFailed):
			tag = domain.OAuthErrTokenExchangeFailed
		default:
			tag = failureTag(target, domain.OAuthErrAuthFailed)
		}
		return s.fail(target, domain.HandshakeExchangeFailed, tag, err.Error())
	}
	s.logHandshake(target, domain.HandshakeTokenExchanged, "")

	if target == domain.TargetLogin {
		return s.completeLogin(ctx, sessionID, provider, token)
	}

	service, _ := target.Service()
	now := s.now()
	data := &domain.TokenData{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    domain.ExpiresAtFrom(now, time.Duration(token.ExpiresIn)*time.Second),
		TokenType:    tokenType(token.TokenType),
	}
	if err := s.tokens.Set(ctx, sessionID, service, data); err != nil {
		return s.fail(target, domain.HandshakeErrorRedirect, domain.OAuthErrAuthFailed, err.Error())
	}

	s.logHandshake(target, domain.HandshakeConnected, "")
	return &driving.CallbackResponse{
		Target:      target,
		State:       domain.HandshakeConnected,
		RedirectURL: s.webBaseURL + "/settings?" + url.Values{"connected": {string(service)}}.Encode(),
	}
}

func (s *oauthService) completeLogin(ctx context.Context, sessionID string, provider driven.OAuthProvider, token *driven.OAuthToken) *driving.CallbackResponse {
	target := domain.TargetLogin
	infoProvider, ok := provider.(driven.UserInfoProvider)
	if !ok {
		return s.fail(target, domain.HandshakeErrorRedirect, domain.OAuthErrLoginFailed, "provider has no userinfo endpoint")
	}

	user, err := infoProvider.UserInfo(ctx, token.AccessToken)
	if err != nil {
		return s.fail(target, domain.HandshakeErrorRedirect, domain.OAuthErrLoginFailed, err.Error())
	}
	if err := s.sessions.SaveUser(ctx, sessionID, user); err != nil {
		return s.fail(target, domain.HandshakeErrorRedirect, domain.OAuthErrLoginFailed, err.Error())
	}

	s.logHandshake(target, domain.HandshakeConnected, "")
	return &driving.CallbackResponse{
		Target:      target,
		State:       domain.HandshakeConnected,
		RedirectURL: s.webBaseURL + "/settings",
	}
}

func (s *oauthService) fail(target domain.OAuthTarget, state domain.HandshakeState, tag domain.OAuthErrorTag, detail string) *driving.CallbackResponse {
	s.logHandshake(target, state, tag, "detail", detail)

	var redirect string
	if service, ok := target.Service(); ok {
		redirect = s.webBaseURL + "/settings?" + url.Values{
			"error":   {string(tag)},
			"service": {string(service)},
		}.Encode()
	} else {
		redirect = s.webBaseURL + "/?" + url.Values{"error": {string(tag)}}.Encode()
	}

	return &driving.CallbackResponse{
		Target:      target,
		State:       state,
		ErrorTag:    tag,
		RedirectURL: redirect,
	}
}

func (s *oauthService) logHandshake(target domain.OAuthTarget, state domain.HandshakeState, tag domain.OAuthErrorTag, args ...any) {
	attrs := append([]any{"target", target, "state", state}, args...)
	if tag != "" {
		attrs = append(attrs, "error_tag", tag)
		s.logger.Warn("oauth handshake", attrs...)
		return
	}
	s.logger.Info("oauth handshake", attrs...)
}

// Me reports the signed-in user of the session
func (s *oauthService) Me(ctx context.Context, sessionID string) (*driving.MeResponse, error) {
	user, err := s.sessions.GetUser(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session user: %w", err)
	}
	return &driving.MeResponse{Authenticated: user != nil, User: user}, nil
}

// Logout forgets everything held for the session
func (s *oauthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session user: %w", err)
	}
	if err := s.tokens.RemoveAll(ctx, sessionID); err != nil {
		return fmt.Errorf("remove session tokens: %w", err)
	}
	if s.history != nil {
		if err := s.history.Clear(ctx, sessionID); err != nil {
			return fmt.Errorf("clear session history: %w", err)
		}
	}
	return nil
}

// failureTag maps generic failures to login_failed on the login target
func failureTag(target domain.OAuthTarget, tag domain.OAuthErrorTag) domain.OAuthErrorTag {
	if target == domain.TargetLogin && tag == domain.OAuthErrAuthFailed {
		return domain.OAuthErrLoginFailed
	}
	return tag
}

func tokenType(t string) string {
	if t == "" {
		return "Bearer"
	}
	return t
}

// generateRandomString creates a cryptographically random hex string.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}
