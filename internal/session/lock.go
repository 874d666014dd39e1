package session

import (
	"context"
	"sync"

	"kitstock/pkg/platform/sentinel"
)

// Locker grants a session exclusive possession of stock addresses for the
// duration of a commit. Two sessions reconciling overlapping addresses would
// otherwise race on absolute counter writes.
type Locker interface {
	// Acquire takes every address or none. A held address returns
	// sentinel.ErrLocked.
	Acquire(ctx context.Context, sessionID string, addresses []string) error
	Release(ctx context.Context, sessionID string, addresses []string) error
}

// InMemoryLocker is a process-local lock table for single-node deployments
// and tests.
type InMemoryLocker struct {
	mu    sync.Mutex
	owner map[string]string
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{owner: make(map[string]string)}
}

func (l *InMemoryLocker) Acquire(_ context.Context, sessionID string, addresses []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, addr := range addresses {
		if owner, held := l.owner[addr]; held && owner != sessionID {
			return sentinel.ErrLocked
		}
	}
	for _, addr := range addresses {
		l.owner[addr] = sessionID
	}
	return nil
}

func (l *InMemoryLocker) Release(_ context.Context, sessionID string, addresses []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, addr := range addresses {
		if l.owner[addr] == sessionID {
			delete(l.owner, addr)
		}
	}
	return nil
}
