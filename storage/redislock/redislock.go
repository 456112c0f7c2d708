// Package redislock implements optimistic.Locker over Redis, so that mutations on one entity are serialized
// across every API instance.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
)

const (
	keyPrefix    = "jungla:lock:"
	retryMin     = 10 * time.Millisecond
	retryMax     = 250 * time.Millisecond
	releaseAfter = 2 * time.Second
)

// release deletes the lock only when it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker takes a Redis lock per key, behind an in-process lock so that local waiters do not poll Redis.
// Locks expire after ttl so a crashed holder never blocks a key forever.
type Locker struct {
	client *redis.Client
	local  *optimistic.KeyedMutex
	ttl    time.Duration
	logger core.Logger
}

var _ optimistic.Locker = (*Locker)(nil)

func New(client *redis.Client, ttl time.Duration, logger core.Logger) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, local: optimistic.NewKeyedMutex(), ttl: ttl, logger: logger}
}

// Connect opens a client from conf.Redis and checks it answers.
func Connect(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	rkey := keyPrefix + key
	wait := retryMin
	for {
		ok, err := l.client.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, errors.Wrapf(err, "locking %s", key)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			unlockLocal()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > retryMax {
			wait = retryMax
		}
	}

	return func() {
		// the caller's ctx may be done by now
		ctx, cancel := context.WithTimeout(context.Background(), releaseAfter)
		defer cancel()
		if err := release.Run(ctx, l.client, []string{rkey}, token).Err(); err != nil {
			l.logger.Warn(fmt.Sprintf("redislock: releasing %s: %v", key, err), err)
		}
		unlockLocal()
	}, nil
}
