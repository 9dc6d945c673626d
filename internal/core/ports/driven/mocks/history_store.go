package mocks

import (
	"context"
	"sync"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// MockHistoryStore is a mock implementation of HistoryStore for testing
type MockHistoryStore struct {
	mu      sync.RWMutex
	entries map[string][]*domain.SearchHistoryEntry
}

// NewMockHistoryStore creates a new MockHistoryStore
func NewMockHistoryStore() *MockHistoryStore {
	return &MockHistoryStore{
		entries: make(map[string][]*domain.SearchHistoryEntry),
	}
}

func (m *MockHistoryStore) List(ctx context.Context, sessionID string) ([]*domain.SearchHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SearchHistoryEntry, len(m.entries[sessionID]))
	copy(out, m.entries[sessionID])
	return out, nil
}

func (m *MockHistoryStore) Add(ctx context.Context, sessionID string, entry *domain.SearchHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]*domain.SearchHistoryEntry{entry}, m.entries[sessionID]...)
	if len(list) > domain.MaxHistoryEntries {
		list = list[:domain.MaxHistoryEntries]
	}
	m.entries[sessionID] = list
	return nil
}

func (m *MockHistoryStore) Delete(ctx context.Context, sessionID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.entries[sessionID]
	for i, e := range list {
		if e.ID == id {
			m.entries[sessionID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockHistoryStore) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}
