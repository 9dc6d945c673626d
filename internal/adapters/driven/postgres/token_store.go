package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tkgathr2/bulk/internal/adapters/driven/secrets"
	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore keeps sealed tokens, one row per session and service.
type TokenStore struct {
	db        *sql.DB
	encryptor *secrets.Encryptor
}

// NewTokenStore creates a PostgreSQL-backed TokenStore.
func NewTokenStore(db *sql.DB, encryptor *secrets.Encryptor) *TokenStore {
	return &TokenStore{db: db, encryptor: encryptor}
}

// Get returns the token, or nil, nil when none is stored.
func (s *TokenStore) Get(ctx context.Context, sessionID string, service domain.ServiceID) (*domain.TokenData, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT secret FROM service_tokens WHERE session_id = $1 AND service = $2`,
		sessionID, string(service),
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	var token domain.TokenData
	if err := s.encryptor.Decrypt(blob, &token); err != nil {
		return nil, fmt.Errorf("decrypt token: %w", err)
	}
	return &token, nil
}

// Set upserts the token.
func (s *TokenStore) Set(ctx context.Context, sessionID string, service domain.ServiceID, token *domain.TokenData) error {
	blob, err := s.encryptor.Encrypt(token)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO service_tokens (session_id, service, secret, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id, service)
		DO UPDATE SET secret = EXCLUDED.secret, updated_at = NOW()
	`, sessionID, string(service), blob)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Remove deletes one token.
func (s *TokenStore) Remove(ctx context.Context, sessionID string, service domain.ServiceID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM service_tokens WHERE session_id = $1 AND service = $2`,
		sessionID, string(service))
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// RemoveAll deletes every token of the session.
func (s *TokenStore) RemoveAll(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM service_tokens WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("remove tokens: %w", err)
	}
	return nil
}
