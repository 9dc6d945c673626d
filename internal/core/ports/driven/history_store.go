package driven

import (
	"context"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// HistoryStore keeps a bounded, newest-first search history per session.
type HistoryStore interface {
	// List returns entries newest first.
	List(ctx context.Context, sessionID string) ([]*domain.SearchHistoryEntry, error)

	// Add prepends the entry and evicts the oldest beyond domain.MaxHistoryEntries.
	Add(ctx context.Context, sessionID string, entry *domain.SearchHistoryEntry) error

	// Delete removes one entry. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, sessionID, id string) error

	// Clear removes every entry for the session.
	Clear(ctx context.Context, sessionID string) error
}
