package memory

import (
	"context"
	"sync"
)

// Inbox remembers consumed event ids for the life of the process.
type Inbox struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewInbox() *Inbox {
	return &Inbox{seen: make(map[string]struct{})}
}

func (i *Inbox) Processed(ctx context.Context, eventID string) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.seen[eventID]
	return ok, nil
}

func (i *Inbox) MarkProcessed(ctx context.Context, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.seen[eventID] = struct{}{}
	return nil
}
