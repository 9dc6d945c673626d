package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
	"github.com/tkgathr2/bulk/internal/core/ports/driving"
)

// Ensure tokenService implements TokenService
var _ driving.TokenService = (*tokenService)(nil)

const (
	// DefaultRefreshMargin is how long before expiry a token is refreshed
	DefaultRefreshMargin = 60 * time.Second

	// defaultTokenLifetime applies when a refresh response carries no expires_in
	defaultTokenLifetime = time.Hour

	defaultRefreshLockTTL  = 30 * time.Second
	defaultRefreshLockWait = 3 * time.Second
	refreshPollInterval    = 100 * time.Millisecond
)

// TokenServiceConfig holds dependencies for the token service.
type TokenServiceConfig struct {
	// Store persists tokens per session and service.
	Store driven.TokenStore

	// Refreshers maps each service to its provider's refresh client.
	Refreshers map[domain.ServiceID]driven.TokenRefresher

	// Lock deduplicates concurrent refreshes of the same token (optional).
	Lock driven.DistributedLock

	// Margin is the refresh safety margin. Defaults to DefaultRefreshMargin.
	Margin time.Duration

	// LockWait bounds how long a caller waits for a peer's refresh.
	LockWait time.Duration

	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

type tokenService struct {
	store      driven.TokenStore
	refreshers map[domain.ServiceID]driven.TokenRefresher
	lock       driven.DistributedLock
	margin     time.Duration
	lockWait   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(cfg TokenServiceConfig) driving.TokenService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	margin := cfg.Margin
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	lockWait := cfg.LockWait
	if lockWait <= 0 {
		lockWait = defaultRefreshLockWait
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &tokenService{
		store:      cfg.Store,
		refreshers: cfg.Refreshers,
		lock:       cfg.Lock,
		margin:     margin,
		lockWait:   lockWait,
		logger:     logger,
		now:        now,
	}
}

// EnsureFreshToken returns the stored access token, or refreshes it first
// when it is within the safety margin of expiry.
func (s *tokenService) EnsureFreshToken(ctx context.Context, sessionID string, service domain.ServiceID) (string, error) {
	token, err := s.store.Get(ctx, sessionID, service)
	if err != nil {
		return "", fmt.Errorf("get %s token: %w", service, err)
	}
	if token == nil || token.AccessToken == "" {
		return "", domain.ErrNotConnected
	}

	if !token.NeedsRefresh(s.now(), s.margin) {
		return token.AccessToken, nil
	}
	if token.RefreshToken == "" {
		return "", domain.ErrNoRefreshToken
	}

	refresher, ok := s.refreshers[service]
	if !ok || refresher == nil {
		return "", fmt.Errorf("%w: no refresher for %s", domain.ErrRefreshFailed, service)
	}

	if s.lock != nil {
		lockName := refreshLockName(sessionID, service)
		acquired, err := s.lock.Acquire(ctx, lockName, defaultRefreshLockTTL)
		switch {
		case err != nil:
			s.logger.Warn("refresh lock unavailable, refreshing without it",
				"service", service, "error", err)
		case acquired:
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
					s.logger.Warn("failed to release refresh lock", "service", service, "error", err)
				}
			}()
			// A peer may have finished refreshing between our read and the lock.
			if current, err := s.store.Get(ctx, sessionID, service); err == nil && current != nil &&
				current.AccessToken != "" && !current.NeedsRefresh(s.now(), s.margin) {
				return current.AccessToken, nil
			}
		default:
			if fresh, ok := s.awaitPeerRefresh(ctx, sessionID, service); ok {
				return fresh, nil
			}
		}
	}

	return s.refresh(ctx, sessionID, service, token, refresher)
}

// awaitPeerRefresh polls the store while another caller holds the refresh lock.
func (s *tokenService) awaitPeerRefresh(ctx context.Context, sessionID string, service domain.ServiceID) (string, bool) {
	deadline := time.NewTimer(s.lockWait)
	defer deadline.Stop()
	ticker := time.NewTicker(refreshPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-deadline.C:
			return "", false
		case <-ticker.C:
			current, err := s.store.Get(ctx, sessionID, service)
			if err != nil || current == nil || current.AccessToken == "" {
				continue
			}
			if !current.NeedsRefresh(s.now(), s.margin) {
				return current.AccessToken, true
			}
		}
	}
}

func (s *tokenService) refresh(
	ctx context.Context,
	sessionID string,
	service domain.ServiceID,
	token *domain.TokenData,
	refresher driven.TokenRefresher,
) (string, error) {
	start := s.now()
	resp, err := refresher.Refresh(ctx, token.RefreshToken)
	if err != nil {
		s.logger.Warn("token refresh failed", "service", service, "error", err)
		return "", fmt.Errorf("%w: %s: %w", domain.ErrRefreshFailed, service, err)
	}
	if resp == nil || resp.AccessToken == "" {
		s.logger.Warn("token refresh returned no access token", "service", service)
		return "", fmt.Errorf("%w: %s: missing access token", domain.ErrRefreshFailed, service)
	}

	lifetime := time.Duration(resp.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}

	updated := token.Clone()
	updated.AccessToken = resp.AccessToken
	updated.ExpiresAt = domain.ExpiresAtFrom(start, lifetime)
	if resp.RefreshToken != "" {
		updated.RefreshToken = resp.RefreshToken
	}
	if resp.TokenType != "" {
		updated.TokenType = resp.TokenType
	}

	// Skip the write if the service was disconnected during the refresh.
	current, err := s.store.Get(ctx, sessionID, service)
	if err == nil && (current == nil || current.AccessToken == "") {
		s.logger.Info("service disconnected during refresh, discarding token", "service", service)
		return "", domain.ErrNotConnected
	}

	if err := s.store.Set(ctx, sessionID, service, updated); err != nil {
		// The new token is still usable for this request.
		s.logger.Error("failed to persist refreshed token", "service", service, "error", err)
	}

	s.logger.Info("token refreshed", "service", service, "expires_in", lifetime)
	return updated.AccessToken, nil
}

// Status derives the connection status from the stored token
func (s *tokenService) Status(ctx context.Context, sessionID string, service domain.ServiceID) (domain.ConnectionStatus, error) {
	token, err := s.store.Get(ctx, sessionID, service)
	if err != nil {
		return "", fmt.Errorf("get %s token: %w", service, err)
	}
	return token.Status(s.now()), nil
}

func refreshLockName(sessionID string, service domain.ServiceID) string {
	return "refresh:" + sessionID + ":" + string(service)
}
