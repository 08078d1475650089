// Package lock provides per-key mutual exclusion for plan generation.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the lock could not be taken before the
// wait deadline.
var ErrNotAcquired = errors.New("lock: not acquired")

// Release frees a held lock.
type Release func(ctx context.Context) error

// Locker acquires exclusive per-key locks. Acquire blocks until the lock is
// free, ctx is done, or the implementation's wait limit passes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}
