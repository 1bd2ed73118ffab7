package memory

import (
	"context"
	"sync"
	"time"

	"locadz/internal/app/middleware"
)

// Locker is a process-local middleware.Locker. Waiters poll until the key is
// free, the wait budget elapses, or ctx ends.
type Locker struct {
	mu      sync.Mutex
	held    map[string]time.Time
	Wait    time.Duration
	Poll    time.Duration
	nowFunc func() time.Time
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]time.Time), Wait: 5 * time.Second, Poll: 10 * time.Millisecond, nowFunc: time.Now}
}

func (l *Locker) tryAcquire(key string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFunc()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return false
	}
	l.held[key] = now.Add(ttl)
	return true
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	deadline := l.nowFunc().Add(l.Wait)
	for !l.tryAcquire(key, ttl) {
		if !l.nowFunc().Before(deadline) {
			return nil, middleware.ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, middleware.ErrLockNotAcquired
		case <-time.After(l.Poll):
		}
	}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}

var _ middleware.Locker = (*Locker)(nil)
