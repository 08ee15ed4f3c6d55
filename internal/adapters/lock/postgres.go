package lock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"communityhub/internal/domain"
)

const (
	defaultPollInterval = 50 * time.Millisecond
	unlockTimeout       = 5 * time.Second
)

// Postgres implements domain.Locker with session-scoped advisory locks, so
// exclusion holds across every process sharing the database. The lock is
// acquired and released on a single dedicated connection; losing that
// connection releases the lock automatically.
type Postgres struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewPostgres returns a Locker backed by pg_try_advisory_lock polling.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, pollInterval: defaultPollInterval}
}

func (l *Postgres) WithLock(ctx context.Context, key string, timeout time.Duration, fn func(ctx context.Context) error) error {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	id := advisoryLockID(key)
	deadline := time.Now().Add(timeout)
	for {
		var acquired bool
		if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&acquired); err != nil {
			return fmt.Errorf("try advisory lock: %w", err)
		}
		if acquired {
			break
		}
		if !time.Now().Before(deadline) {
			return domain.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}

	defer func() {
		// Release must not depend on the caller's context, which may already
		// be cancelled by the time fn returns.
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		var released bool
		_ = conn.QueryRowContext(unlockCtx, "SELECT pg_advisory_unlock($1)", id).Scan(&released)
	}()

	return fn(ctx)
}

// advisoryLockID maps an arbitrary key onto the signed 64-bit space Postgres
// advisory locks are keyed by.
func advisoryLockID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}
