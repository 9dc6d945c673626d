package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps the signed-in user per session.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a PostgreSQL-backed SessionStore.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// GetUser returns the user, or nil, nil when nobody is signed in.
func (s *SessionStore) GetUser(ctx context.Context, sessionID string) (*domain.SessionUser, error) {
	var user domain.SessionUser
	err := s.db.QueryRowContext(ctx,
		`SELECT email, name FROM session_users WHERE session_id = $1`, sessionID,
	).Scan(&user.Email, &user.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session user: %w", err)
	}
	return &user, nil
}

// SaveUser upserts the user.
func (s *SessionStore) SaveUser(ctx context.Context, sessionID string, user *domain.SessionUser) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_users (session_id, email, name, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW()
	`, sessionID, user.Email, user.Name)
	if err != nil {
		return fmt.Errorf("save session user: %w", err)
	}
	return nil
}

// Delete removes the session's user.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_users WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session user: %w", err)
	}
	return nil
}
