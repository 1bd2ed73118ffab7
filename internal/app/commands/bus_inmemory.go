package commands

import (
	"context"
	"fmt"
	"sort"
)

type route func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands by key. Registration happens at startup and
// is not safe to mix with concurrent dispatch.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	r, ok := b.routes[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return r(ctx, cmd)
}

// Keys lists registered routes in order.
func (b *InMemoryBus) Keys() []string {
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register binds handler to the key of C. Registering a key twice panics.
func Register[C Command, R any](bus *InMemoryBus, handler Handler[C, R]) {
	if bus == nil || handler == nil {
		panic("commands: nil bus or handler")
	}
	var zero C
	key := zero.Key()
	if key == "" {
		panic(fmt.Sprintf("commands: %T has an empty key", zero))
	}
	if _, dup := bus.routes[key]; dup {
		panic("commands: duplicate registration for " + key)
	}
	bus.routes[key] = func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
		}
		return handler.Handle(ctx, cmd)
	}
}
