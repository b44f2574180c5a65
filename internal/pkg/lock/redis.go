package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const lockKeyPrefix = "loyalty:lock:"

// releaseScript deletes the lock only if it is still held by this owner.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker backed by Redis SET NX PX, for deployments with
// more than one API instance. The TTL bounds how long a crashed holder can
// keep a card locked.
type RedisLocker struct {
	client *redis.Client
	wait   time.Duration
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a RedisLocker with the given wait bound and lock TTL.
func NewRedisLocker(client *redis.Client, wait, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		wait:   wait,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	owner := uuid.New().String()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, owner, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				if err := releaseScript.Run(context.Background(), l.client, []string{redisKey}, owner).Err(); err != nil && err != redis.Nil {
					log.Warn().Err(err).Str("key", key).Msg("Failed to release redis lock")
				}
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrBusy
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}
