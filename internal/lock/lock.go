// Package lock keeps two sync cycles for the same tag from overlapping. The
// runner itself takes no lock; triggers acquire one around each cycle.
package lock

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotObtained means another holder owns the key.
	ErrNotObtained = errors.New("lock not obtained")

	// ErrLeaseLost means a held lease expired or was taken over before it
	// was released.
	ErrLeaseLost = errors.New("lock lease lost")
)

// Lease is a held lock.
type Lease interface {
	// Lost is closed once the lease can no longer be kept. A nil channel
	// means the lease cannot be lost.
	Lost() <-chan struct{}
	Release(ctx context.Context) error
}

// Locker acquires a lease on key without waiting.
type Locker interface {
	TryLock(ctx context.Context, key string) (Lease, error)
}

// Local is an in-process Locker for single-instance deployments.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) TryLock(ctx context.Context, key string) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrNotObtained
	}
	l.held[key] = struct{}{}
	return &localLease{owner: l, key: key}, nil
}

type localLease struct {
	owner *Local
	key   string
	once  sync.Once
}

func (l *localLease) Lost() <-chan struct{} { return nil }

func (l *localLease) Release(context.Context) error {
	l.once.Do(func() {
		l.owner.mu.Lock()
		delete(l.owner.held, l.key)
		l.owner.mu.Unlock()
	})
	return nil
}
