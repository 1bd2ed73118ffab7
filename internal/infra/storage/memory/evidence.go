package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"locadz/internal/app/policies"
)

var ErrEvidenceNotFound = errors.New("memory: evidence not found")

// EvidenceStorage keeps uploaded proof files in memory and hands out fake
// links under BaseURL.
type EvidenceStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	BaseURL string
}

func NewEvidenceStorage(baseURL string) *EvidenceStorage {
	return &EvidenceStorage{objects: make(map[string][]byte), BaseURL: baseURL}
}

func (s *EvidenceStorage) Upload(ctx context.Context, file policies.Evidence) (string, error) {
	if file.Body == nil {
		return "", errors.New("memory: evidence body missing")
	}
	data, err := io.ReadAll(file.Body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[file.Key] = data
	s.mu.Unlock()
	return s.link(file.Key, 0), nil
}

func (s *EvidenceStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *EvidenceStorage) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrEvidenceNotFound
	}
	return s.link(key, ttl), nil
}

// Object returns the stored bytes of key.
func (s *EvidenceStorage) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

func (s *EvidenceStorage) link(key string, ttl time.Duration) string {
	base := s.BaseURL
	if base == "" {
		base = "memory://evidence"
	}
	if ttl <= 0 {
		return base + "/" + key
	}
	return fmt.Sprintf("%s/%s?expires=%s", base, key, url.QueryEscape(ttl.String()))
}

var _ policies.EvidenceStorage = (*EvidenceStorage)(nil)
