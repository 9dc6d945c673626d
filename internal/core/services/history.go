package services

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
	"github.com/tkgathr2/bulk/internal/core/ports/driving"
)

// Ensure historyService implements HistoryService
var _ driving.HistoryService = (*historyService)(nil)

type historyService struct {
	store driven.HistoryStore
	now   func() time.Time
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(store driven.HistoryStore) driving.HistoryService {
	return &historyService{store: store, now: time.Now}
}

func (s *historyService) List(ctx context.Context, sessionID string) ([]*domain.SearchHistoryEntry, error) {
	entries, err := s.store.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.SearchHistoryEntry{}
	}
	return entries, nil
}

// Save records a search. Missing filters default to every service.
func (s *historyService) Save(ctx context.Context, sessionID string, req driving.SaveHistoryRequest) (*domain.SearchHistoryEntry, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.ErrQueryRequired
	}
	if utf8.RuneCountInString(query) > domain.MaxQueryLength {
		return nil, domain.ErrQueryTooLong
	}

	filters := domain.DefaultFilters()
	if req.Filters != nil {
		filters = *req.Filters
		if len(filters.Services) == 0 {
			filters.Services = domain.AllServices()
		}
	}

	now := s.now()
	entry := &domain.SearchHistoryEntry{
		ID:         "hist_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + uuid.NewString()[:8],
		Query:      query,
		Filters:    filters,
		SearchedAt: domain.FormatTimestamp(now),
	}
	if err := s.store.Add(ctx, sessionID, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *historyService) Delete(ctx context.Context, sessionID, id string) error {
	return s.store.Delete(ctx, sessionID, id)
}

func (s *historyService) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}
