package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.HistoryStore = (*HistoryStore)(nil)

const historyPrefix = keyPrefix + "history:"

// HistoryStore keeps a capped list per session, newest at index 0.
type HistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHistoryStore creates a Redis-backed HistoryStore.
func NewHistoryStore(client *redis.Client, ttl time.Duration) *HistoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &HistoryStore{client: client, ttl: ttl}
}

func historyKey(sessionID string) string {
	return historyPrefix + sessionID
}

// List returns entries newest first.
func (s *HistoryStore) List(ctx context.Context, sessionID string) ([]*domain.SearchHistoryEntry, error) {
	raw, err := s.client.LRange(ctx, historyKey(sessionID), 0, domain.MaxHistoryEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]*domain.SearchHistoryEntry, 0, len(raw))
	for _, r := range raw {
		var entry domain.SearchHistoryEntry
		if err := json.Unmarshal([]byte(r), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// Add prepends the entry and trims the list to MaxHistoryEntries.
func (s *HistoryStore) Add(ctx context.Context, sessionID string, entry *domain.SearchHistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	key := historyKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, domain.MaxHistoryEntries-1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}
	return nil
}

// Delete removes one entry by id.
func (s *HistoryStore) Delete(ctx context.Context, sessionID, id string) error {
	key := historyKey(sessionID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	for _, r := range raw {
		var entry domain.SearchHistoryEntry
		if json.Unmarshal([]byte(r), &entry) != nil || entry.ID != id {
			continue
		}
		removed, err := s.client.LRem(ctx, key, 1, r).Result()
		if err != nil {
			return fmt.Errorf("failed to delete history entry: %w", err)
		}
		if removed == 0 {
			break
		}
		return nil
	}
	return domain.ErrNotFound
}

// Clear removes every entry of the session.
func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
