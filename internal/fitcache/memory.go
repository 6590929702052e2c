package fitcache

import (
	"context"
	"sync"

	"svjfit/internal/model"
)

// MemoryStore keeps cached fits in process memory; used for tests and
// cache-less runs.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	results     map[string]model.FitResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.results = make(map[string]model.FitResult)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, hash string) (model.FitResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.results[hash]
	return res, ok, nil
}

func (s *MemoryStore) Write(_ context.Context, hash string, res model.FitResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[hash] = res
	return nil
}
