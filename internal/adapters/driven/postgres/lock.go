package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*LeaseLock)(nil)

// LeaseLock implements DistributedLock with rows that expire.
// A lease can be taken over once its expires_at has passed.
type LeaseLock struct {
	db      *sql.DB
	ownerID string
}

// NewLeaseLock creates a PostgreSQL lease lock with a random owner ID.
func NewLeaseLock(db *sql.DB) *LeaseLock {
	return &LeaseLock{db: db, ownerID: uuid.NewString()}
}

// Acquire inserts the lease, or takes over an expired one.
func (l *LeaseLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO locks (name, owner, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 millisecond')
		ON CONFLICT (name) DO UPDATE
		SET owner = EXCLUDED.owner, expires_at = EXCLUDED.expires_at
		WHERE locks.expires_at < NOW()
	`, name, l.ownerID, ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return n == 1, nil
}

// Release deletes the lease if this instance owns it.
func (l *LeaseLock) Release(ctx context.Context, name string) error {
	if _, err := l.db.ExecContext(ctx,
		`DELETE FROM locks WHERE name = $1 AND owner = $2`, name, l.ownerID); err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}
