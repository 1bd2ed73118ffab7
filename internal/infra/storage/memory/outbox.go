package memory

import (
	"context"
	"sync"

	appoutbox "locadz/internal/app/outbox"
	"locadz/internal/app/uow"
)

// Outbox keeps events in memory. Records become pending only once the unit
// that added them commits; Flush moves pending records to the published log,
// which stands in for the broker when Kafka is not configured.
type Outbox struct {
	mu        sync.Mutex
	pending   []appoutbox.EventRecord
	published []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	uow.AfterCommit(ctx, func(context.Context) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.pending = append(o.pending, record)
	})
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published = append(o.published, o.pending...)
	o.pending = nil
	return nil
}

// Published returns a copy of the flushed events in order.
func (o *Outbox) Published() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.published))
	copy(out, o.published)
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
