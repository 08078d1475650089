package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fitwell/backend/internal/config"
)

const (
	keyPrefix    = "fitwell:lock:"
	retryBackoff = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an
// expired-and-retaken lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX with a random token).
type RedisLocker struct {
	client *redis.Client
	wait   time.Duration
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisLocker(client *redis.Client, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, wait: wait}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	token := uuid.NewString()
	fullKey := keyPrefix + key

	var deadline time.Time
	if l.wait > 0 {
		deadline = time.Now().Add(l.wait)
	}

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}

	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}, nil
}
