package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRetryInterval = 25 * time.Millisecond
	releaseTimeout       = 2 * time.Second
	keyPrefix            = "meeting-room-booking:lock:"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired holder cannot release a lock that was taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes holders of the same key across processes sharing a
// Redis server. A held key expires after ttl so a crashed holder cannot
// block a room forever; ttl must exceed the longest admission transaction.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  defaultRetryInterval,
		logger: slog.Default().With("component", "lock"),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()

		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock '%v': %w", key, err)
		}

		if acquired {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock", "key", key, "err", err)
			}
		})
	}, nil
}
