package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates token refreshes across goroutines and instances.
// It only avoids redundant refresh calls; correctness never depends on it.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if the lock was acquired, false if already held elsewhere.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error
}
