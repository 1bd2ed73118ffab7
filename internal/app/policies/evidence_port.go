package policies

import (
	"context"
	"io"
	"time"
)

type Evidence struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// EvidenceStorage keeps payment proof files in blob storage.
type EvidenceStorage interface {
	Upload(ctx context.Context, file Evidence) (string, error)
	Remove(ctx context.Context, key string) error
	// URL returns a time-limited link for reviewers.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
