// Package lock provides domain.Locker implementations: a Postgres
// advisory-lock locker effective across processes, and an in-memory locker
// for tests and single-process runs.
package lock

import (
	"context"
	"sync"
	"time"

	"communityhub/internal/domain"
)

// Memory is a per-key channel semaphore. It satisfies the Locker contract
// within a single process only.
type Memory struct {
	mu   sync.Mutex
	keys map[string]chan struct{}
}

// NewMemory returns an in-process Locker.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]chan struct{})}
}

func (l *Memory) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.keys[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.keys[key] = ch
	}
	return ch
}

func (l *Memory) WithLock(ctx context.Context, key string, timeout time.Duration, fn func(ctx context.Context) error) error {
	sem := l.sem(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()
	return fn(ctx)
}
