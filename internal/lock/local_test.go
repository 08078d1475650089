package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializes(t *testing.T) {
	l := NewLocalLocker(0)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "plan:meal:u1", time.Minute)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, release(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLockerKeysAreIndependent(t *testing.T) {
	l := NewLocalLocker(10 * time.Millisecond)
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "a", 0)
	require.NoError(t, err)
	r2, err := l.Acquire(ctx, "b", 0)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "a", 0)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, r1(ctx))
	require.NoError(t, r1(ctx))
	r3, err := l.Acquire(ctx, "a", 0)
	require.NoError(t, err)
	require.NoError(t, r3(ctx))
	require.NoError(t, r2(ctx))
}

func TestLocalLockerForgetsReleasedKeys(t *testing.T) {
	l := NewLocalLocker(10 * time.Millisecond)
	ctx := context.Background()

	for _, key := range []string{"plan:meal:u1", "plan:meal:u2", "plan:workout-daily:u1"} {
		release, err := l.Acquire(ctx, key, time.Minute)
		require.NoError(t, err)
		require.NoError(t, release(ctx))
	}
	assert.Zero(t, l.held())

	release, err := l.Acquire(ctx, "k", 0)
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "k", 0)
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.Equal(t, 1, l.held())
	require.NoError(t, release(ctx))
	assert.Zero(t, l.held())
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker(0)
	release, err := l.Acquire(context.Background(), "k", 0)
	require.NoError(t, err)
	defer release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k", 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
