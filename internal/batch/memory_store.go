package batch

import (
	"context"
	"sync"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Progress
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Progress)}
}

func (s *MemoryStore) Save(ctx context.Context, token string, progress Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[token] = progress
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.snapshots[token]
	if !ok {
		return Progress{}, apperr.New(apperr.KindNotFound, "unknown batch token %q", token)
	}
	return progress, nil
}
