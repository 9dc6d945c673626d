package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps search history rows ordered by insertion sequence.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a PostgreSQL-backed HistoryStore.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// List returns entries newest first.
func (s *HistoryStore) List(ctx context.Context, sessionID string) ([]*domain.SearchHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, filters, searched_at
		FROM search_history
		WHERE session_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, sessionID, domain.MaxHistoryEntries)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []*domain.SearchHistoryEntry{}
	for rows.Next() {
		var (
			entry   domain.SearchHistoryEntry
			filters []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Query, &filters, &entry.SearchedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal(filters, &entry.Filters); err != nil {
			return nil, fmt.Errorf("unmarshal filters: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Add inserts the entry and evicts everything beyond MaxHistoryEntries.
func (s *HistoryStore) Add(ctx context.Context, sessionID string, entry *domain.SearchHistoryEntry) error {
	filters, err := json.Marshal(entry.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}

	return transaction(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_history (id, session_id, query, filters, searched_at)
			VALUES ($1, $2, $3, $4, $5)
		`, entry.ID, sessionID, entry.Query, filters, entry.SearchedAt); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM search_history
			WHERE session_id = $1 AND seq NOT IN (
				SELECT seq FROM search_history
				WHERE session_id = $1
				ORDER BY seq DESC
				LIMIT $2
			)
		`, sessionID, domain.MaxHistoryEntries); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
}

// Delete removes one entry.
func (s *HistoryStore) Delete(ctx context.Context, sessionID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE session_id = $1 AND id = $2`, sessionID, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Clear removes every entry of the session.
func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
