package optimistic

import (
	"context"
	"sync"
)

// Locker serializes mutations sharing a key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// KeyedMutex is an in-process Locker. Keys are independent; waiters for one key are served one at a time.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

var _ Locker = (*KeyedMutex)(nil)

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

func (km *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	km.mu.Lock()
	kl, ok := km.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		km.locks[key] = kl
	}
	kl.refs++
	km.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		km.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			km.release(key, kl)
		})
	}, nil
}

func (km *KeyedMutex) release(key string, kl *keyLock) {
	km.mu.Lock()
	defer km.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(km.locks, key)
	}
}

// Len returns the number of keys currently locked or waited on.
func (km *KeyedMutex) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.locks)
}
