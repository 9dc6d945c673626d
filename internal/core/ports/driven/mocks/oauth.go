package mocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// MockOAuthProvider is a mock implementation of OAuthProvider and
// UserInfoProvider for testing
type MockOAuthProvider struct {
	ProviderType domain.ProviderType
	IsConfigured bool

	ExchangeFn func(ctx context.Context, target domain.OAuthTarget, code string) (*driven.OAuthToken, error)
	RefreshFn  func(ctx context.Context, refreshToken string) (*driven.OAuthToken, error)
	UserInfoFn func(ctx context.Context, accessToken string) (*domain.SessionUser, error)

	refreshCalls atomic.Int32
}

// NewMockOAuthProvider creates a configured mock provider
func NewMockOAuthProvider(t domain.ProviderType) *MockOAuthProvider {
	return &MockOAuthProvider{ProviderType: t, IsConfigured: true}
}

func (m *MockOAuthProvider) Type() domain.ProviderType { return m.ProviderType }

func (m *MockOAuthProvider) Configured() bool { return m.IsConfigured }

func (m *MockOAuthProvider) AuthURL(target domain.OAuthTarget, state string) string {
	return "https://provider.test/authorize?target=" + string(target) + "&state=" + state
}

func (m *MockOAuthProvider) Exchange(ctx context.Context, target domain.OAuthTarget, code string) (*driven.OAuthToken, error) {
	if m.ExchangeFn != nil {
		return m.ExchangeFn(ctx, target, code)
	}
	return &driven.OAuthToken{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, ExpiresIn: 3600, TokenType: "Bearer"}, nil
}

func (m *MockOAuthProvider) Refresh(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	m.refreshCalls.Add(1)
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return &driven.OAuthToken{AccessToken: "refreshed", ExpiresIn: 3600, TokenType: "Bearer"}, nil
}

func (m *MockOAuthProvider) UserInfo(ctx context.Context, accessToken string) (*domain.SessionUser, error) {
	if m.UserInfoFn != nil {
		return m.UserInfoFn(ctx, accessToken)
	}
	return &domain.SessionUser{Email: "user@example.com", Name: "Test User"}, nil
}

// RefreshCalls returns how many refreshes reached the provider
func (m *MockOAuthProvider) RefreshCalls() int {
	return int(m.refreshCalls.Load())
}

// MockOAuthStateStore is an in-memory OAuthStateStore for testing
type MockOAuthStateStore struct {
	mu     sync.Mutex
	states map[string]*driven.OAuthState
}

// NewMockOAuthStateStore creates a new MockOAuthStateStore
func NewMockOAuthStateStore() *MockOAuthStateStore {
	return &MockOAuthStateStore{states: make(map[string]*driven.OAuthState)}
}

func (m *MockOAuthStateStore) Save(ctx context.Context, state *driven.OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.State] = state
	return nil
}

func (m *MockOAuthStateStore) GetAndDelete(ctx context.Context, state string) (*driven.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[state]
	if !ok {
		return nil, nil
	}
	delete(m.states, state)
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}
