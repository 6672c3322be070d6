package ledger

import (
	"context"
	"sync"

	"nutrilog/internal/core"
)

// keyLocks hands out one mutex per date key. Entries are reference counted
// and dropped when the last holder or waiter leaves.
type keyLocks struct {
	mu    sync.Mutex
	locks map[core.DateKey]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[core.DateKey]*keyLock)}
}

// lock blocks until key is free or ctx is done. The returned func releases
// the lock and must be called exactly once.
func (l *keyLocks) lock(ctx context.Context, key core.DateKey) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return func() {
			<-kl.ch
			l.release(key, kl)
		}, nil
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}
}

func (l *keyLocks) release(key core.DateKey, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// size is the number of keys currently tracked.
func (l *keyLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
