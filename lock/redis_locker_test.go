package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hanksha/meeting-room-booking-backend/lock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const lockKey = "meeting-room-booking:lock:room:1"

func newRedisLocker(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *lock.RedisLocker) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	return server, lock.NewRedisLocker(client, ttl)
}

func TestRedisLocker(t *testing.T) {

	t.Run("lock and release", func(t *testing.T) {
		server, locker := newRedisLocker(t, 10*time.Second)

		unlock, err := locker.Lock(context.Background(), "room:1")
		require.NoError(t, err)
		require.True(t, server.Exists(lockKey))

		unlock()
		require.False(t, server.Exists(lockKey))
	})

	t.Run("serializes same key", func(t *testing.T) {
		_, locker := newRedisLocker(t, 10*time.Second)
		var holders, maxHolders atomic.Int32
		var wg sync.WaitGroup

		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				unlock, err := locker.Lock(context.Background(), "room:1")
				require.NoError(t, err)
				defer unlock()

				n := holders.Add(1)
				if n > maxHolders.Load() {
					maxHolders.Store(n)
				}
				time.Sleep(5 * time.Millisecond)
				holders.Add(-1)
			}()
		}

		wg.Wait()
		require.Equal(t, int32(1), maxHolders.Load())
	})

	t.Run("context ends while waiting", func(t *testing.T) {
		_, locker := newRedisLocker(t, 10*time.Second)

		unlock, err := locker.Lock(context.Background(), "room:1")
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err = locker.Lock(ctx, "room:1")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("expired holder does not release new holder", func(t *testing.T) {
		server, locker := newRedisLocker(t, time.Second)

		staleUnlock, err := locker.Lock(context.Background(), "room:1")
		require.NoError(t, err)

		server.FastForward(2 * time.Second)

		unlock, err := locker.Lock(context.Background(), "room:1")
		require.NoError(t, err)
		defer unlock()

		staleUnlock()
		require.True(t, server.Exists(lockKey))
	})

	t.Run("server down", func(t *testing.T) {
		server, locker := newRedisLocker(t, time.Second)
		server.Close()

		_, err := locker.Lock(context.Background(), "room:1")
		require.Error(t, err)
	})
}
