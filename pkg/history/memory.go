package history

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/memeforge/pkg/meme"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	limit int
	recs  []meme.Record
}

// NewMemoryStore creates an empty in-memory store. A limit <= 0 uses
// DefaultLimit.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: normalizeLimit(limit)}
}

func (s *MemoryStore) Add(ctx context.Context, rec meme.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = prepend(s.recs, rec, s.limit)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]meme.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.recs), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (meme.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.recs, id)
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = nil
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
