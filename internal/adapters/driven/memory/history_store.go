package memory

import (
	"context"
	"sync"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps a newest-first slice per session.
type HistoryStore struct {
	mu      sync.RWMutex
	entries map[string][]*domain.SearchHistoryEntry
}

// NewHistoryStore creates an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{entries: make(map[string][]*domain.SearchHistoryEntry)}
}

func (s *HistoryStore) List(_ context.Context, sessionID string) ([]*domain.SearchHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.SearchHistoryEntry, 0, len(s.entries[sessionID]))
	for _, e := range s.entries[sessionID] {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

func (s *HistoryStore) Add(_ context.Context, sessionID string, entry *domain.SearchHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *entry
	list := append([]*domain.SearchHistoryEntry{&c}, s.entries[sessionID]...)
	if len(list) > domain.MaxHistoryEntries {
		list = list[:domain.MaxHistoryEntries]
	}
	s.entries[sessionID] = list
	return nil
}

func (s *HistoryStore) Delete(_ context.Context, sessionID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.entries[sessionID]
	for i, e := range list {
		if e.ID == id {
			s.entries[sessionID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *HistoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
