package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// Lock is a process-local lock table with TTLs.
type Lock struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLock creates an empty Lock.
func NewLock() *Lock {
	return &Lock{held: make(map[string]time.Time), now: time.Now}
}

func (l *Lock) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if until, ok := l.held[name]; ok && now.Before(until) {
		return false, nil
	}
	l.held[name] = now.Add(ttl)
	return true, nil
}

func (l *Lock) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, name)
	return nil
}
