package lock

import (
	"context"
	"sync"
	"time"
)

// KeyedMutex is an in-process Locker. Each key maps to a channel-based
// mutex; entries are reference-counted and removed when unused.
type KeyedMutex struct {
	wait time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ch   chan struct{} // capacity 1; holding the token means holding the lock
	refs int
}

// NewKeyedMutex creates a KeyedMutex with the given maximum wait per acquire.
func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{
		wait:    wait,
		entries: make(map[string]*entry),
	}
}

func (k *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	timer := time.NewTimer(k.wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			k.put(key, e)
		}, nil
	case <-timer.C:
		k.put(key, e)
		return nil, ErrBusy
	case <-ctx.Done():
		k.put(key, e)
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) put(key string, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}
