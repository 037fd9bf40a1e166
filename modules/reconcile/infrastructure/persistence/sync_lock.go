package persistence

import (
	"context"
	"hash/fnv"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SyncLock is a database-wide advisory lock that keeps at most one
// reconciliation run active across all processes. The lock is session
// scoped, so the pinned connection stays checked out until release.
type SyncLock struct {
	pool    *pgxpool.Pool
	lockKey int64
}

func NewSyncLock(pool *pgxpool.Pool) *SyncLock {
	return &SyncLock{
		pool:    pool,
		lockKey: advisoryLockKey("presence:sync"),
	}
}

// TryAcquire attempts the lock without blocking. On success the returned
// release func must be called exactly once.
func (l *SyncLock) TryAcquire(ctx context.Context) (release func(), ok bool, err error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, gerrors.Wrap(err, "failed to acquire connection for sync lock")
	}

	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1::bigint)`, l.lockKey).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, gerrors.Wrap(err, "failed to attempt sync lock")
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	release = func() {
		var unlocked bool
		_ = conn.QueryRow(context.Background(), `SELECT pg_advisory_unlock($1::bigint)`, l.lockKey).Scan(&unlocked)
		conn.Release()
	}
	return release, true, nil
}

func advisoryLockKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
