package uow

import (
	"context"
	"sync"
)

// Hook runs after the surrounding transaction committed. Its context is the
// caller's original context, detached from the finished transaction.
type Hook func(ctx context.Context)

// Hooks collects post-commit work registered while a unit of work is open.
type Hooks struct {
	mu  sync.Mutex
	fns []Hook
}

type hooksKey struct{}

func ContextWithHooks(ctx context.Context) (context.Context, *Hooks) {
	h := &Hooks{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

// AfterCommit defers fn until commit. Outside a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn Hook) {
	if fn == nil {
		return
	}
	h, _ := ctx.Value(hooksKey{}).(*Hooks)
	if h == nil {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// Run executes and clears the registered hooks in registration order.
func (h *Hooks) Run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

// Discard drops the registered hooks, used when the transaction rolled back.
func (h *Hooks) Discard() {
	h.mu.Lock()
	h.fns = nil
	h.mu.Unlock()
}
