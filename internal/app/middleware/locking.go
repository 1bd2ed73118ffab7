package middleware

import (
	"context"
	"errors"
	"time"

	"locadz/internal/app/apperr"
	"locadz/internal/app/commands"
)

var ErrLockNotAcquired = errors.New("middleware: resource is locked by another request")

// LockedCommand serializes commands sharing the same lock key.
type LockedCommand interface {
	commands.Command
	LockKey() string
}

type Locker interface {
	// Acquire returns ErrLockNotAcquired when the key stays busy until ctx or the wait budget ends.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

func Locking(locker Locker, ttl time.Duration) CommandMiddleware {
	if locker == nil {
		panic("middleware: locker required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			locked, ok := cmd.(LockedCommand)
			if !ok || locked.LockKey() == "" {
				return nextFn(ctx, cmd)
			}
			release, err := locker.Acquire(ctx, locked.LockKey(), ttl)
			if errors.Is(err, ErrLockNotAcquired) {
				return nil, apperr.Conflict(err)
			}
			if err != nil {
				return nil, apperr.Unavailable(err)
			}
			defer func() {
				_ = release(context.WithoutCancel(ctx))
			}()
			return nextFn(ctx, cmd)
		})
	}
}
