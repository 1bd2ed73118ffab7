package queries

import (
	"context"
	"fmt"
	"sort"
)

type route func(ctx context.Context, q Query) (any, error)

// InMemoryBus mirrors commands.InMemoryBus for reads.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	r, ok := b.routes[query.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return r(ctx, query)
}

func (b *InMemoryBus) Keys() []string {
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register binds handler to the key of Q. Registering a key twice panics.
func Register[Q Query, R any](bus *InMemoryBus, handler Handler[Q, R]) {
	if bus == nil || handler == nil {
		panic("queries: nil bus or handler")
	}
	var zero Q
	key := zero.Key()
	if key == "" {
		panic(fmt.Sprintf("queries: %T has an empty key", zero))
	}
	if _, dup := bus.routes[key]; dup {
		panic("queries: duplicate registration for " + key)
	}
	bus.routes[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	}
}
