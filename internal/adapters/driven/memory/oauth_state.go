package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.OAuthStateStore = (*OAuthStateStore)(nil)

// OAuthStateStore keeps pending handshakes; expired ones are swept on Save.
type OAuthStateStore struct {
	mu     sync.Mutex
	states map[string]driven.OAuthState
	now    func() time.Time
}

// NewOAuthStateStore creates an empty OAuthStateStore.
func NewOAuthStateStore() *OAuthStateStore {
	return &OAuthStateStore{states: make(map[string]driven.OAuthState), now: time.Now}
}

func (s *OAuthStateStore) Save(_ context.Context, state *driven.OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, v := range s.states {
		if now.After(v.ExpiresAt) {
			delete(s.states, k)
		}
	}
	s.states[state.State] = *state
	return nil
}

func (s *OAuthStateStore) GetAndDelete(_ context.Context, state string) (*driven.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.states[state]
	if !ok {
		return nil, nil
	}
	delete(s.states, state)
	if s.now().After(v.ExpiresAt) {
		return nil, nil
	}
	return &v, nil
}
