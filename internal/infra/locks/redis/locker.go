package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"locadz/internal/app/middleware"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is an advisory lock on top of SET NX PX.
type Locker struct {
	Client goredis.UniversalClient
	Prefix string
	Wait   time.Duration
	Poll   time.Duration
}

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
}

func NewLocker(client goredis.UniversalClient) *Locker {
	return &Locker{Client: client, Prefix: "locadz:lock:", Wait: 5 * time.Second, Poll: 50 * time.Millisecond}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l.Client == nil {
		return nil, errors.New("redis: client not configured")
	}
	full := l.Prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.Wait)
	for {
		ok, err := l.Client.SetNX(ctx, full, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, middleware.ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, middleware.ErrLockNotAcquired
		case <-time.After(l.Poll):
		}
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.Client, []string{full}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			return fmt.Errorf("redis: release %s: %w", key, err)
		}
		return nil
	}, nil
}

// Ping reports whether the server answers.
func (l *Locker) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

var _ middleware.Locker = (*Locker)(nil)
