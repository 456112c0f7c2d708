package redislock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLocker_LockRelease(t *testing.T) {
	mr, client := setup(t)
	locker := New(client, time.Minute, core.NopLogger{})

	unlock, err := locker.Lock(context.Background(), "block:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"block:1"))

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"block:1"))
}

func TestLocker_SerializesAcrossInstances(t *testing.T) {
	_, client := setup(t)
	a := New(client, time.Minute, core.NopLogger{})
	b := New(client, time.Minute, core.NopLogger{})

	unlock, err := a.Lock(context.Background(), "task:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx, "task:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := b.Lock(context.Background(), "task:1")
	require.NoError(t, err)
	unlock2()
}

func TestLocker_IndependentKeys(t *testing.T) {
	_, client := setup(t)
	locker := New(client, time.Minute, core.NopLogger{})

	unlockA, err := locker.Lock(context.Background(), "lesson:a")
	require.NoError(t, err)
	unlockB, err := locker.Lock(context.Background(), "lesson:b")
	require.NoError(t, err)
	unlockA()
	unlockB()
}

func TestLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	mr, client := setup(t)
	a := New(client, time.Second, core.NopLogger{})
	b := New(client, time.Minute, core.NopLogger{})

	unlockA, err := a.Lock(context.Background(), "event:1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second) // a's lock expires

	unlockB, err := b.Lock(context.Background(), "event:1")
	require.NoError(t, err)

	unlockA() // must not release b's lock
	assert.True(t, mr.Exists(keyPrefix+"event:1"))
	unlockB()
	assert.False(t, mr.Exists(keyPrefix+"event:1"))
}

func TestLocker_MutualExclusion(t *testing.T) {
	_, client := setup(t)
	lockers := []*Locker{New(client, time.Minute, core.NopLogger{}), New(client, time.Minute, core.NopLogger{})}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(l *Locker) {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "content:1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			holders--
			mu.Unlock()
			unlock()
		}(lockers[i%2])
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
