package driving

import (
	"context"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// SearchService runs federated searches
type SearchService interface {
	// Search fans the request out to every requested service concurrently.
	// Returns a validation error before any dispatch when the request is invalid;
	// otherwise the response holds exactly one result per requested service.
	Search(ctx context.Context, sessionID string, req domain.SearchRequest) (*domain.SearchResponse, error)
}

// HistoryService manages the per-session search history
type HistoryService interface {
	// List returns entries newest first
	List(ctx context.Context, sessionID string) ([]*domain.SearchHistoryEntry, error)

	// Save records a completed search. Returns domain.ErrQueryRequired without a query.
	Save(ctx context.Context, sessionID string, req SaveHistoryRequest) (*domain.SearchHistoryEntry, error)

	// Delete removes one entry. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, sessionID, id string) error

	// Clear removes every entry
	Clear(ctx context.Context, sessionID string) error
}

// SaveHistoryRequest is the body of POST /search/history.
// @Description Search to record in history
type SaveHistoryRequest struct {
	Query   string                `json:"query" example:"月次報告"`
	Filters *domain.SearchFilters `json:"filters,omitempty"`
}
