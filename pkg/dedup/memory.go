package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/srand/hookd/pkg/utils"
)

type delivery struct {
	key     string
	body    []byte
	expires time.Time
}

func (d *delivery) Path() string {
	return d.key
}

// Each delivery counts as one unit against the store size.
func (d *delivery) Size() int64 {
	return 1
}

// In-process store. Least recently seen deliveries are forgotten first
// once the store is full.
type memoryStore struct {
	mu  sync.Mutex
	lru *utils.LRU[*delivery]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryStore(size int, ttl time.Duration) *memoryStore {
	return &memoryStore{
		lru: utils.NewLRU[*delivery](int64(size), nil),
		ttl: ttl,
		now: time.Now,
	}
}

func (s *memoryStore) Record(ctx context.Context, key string, body []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if existing, ok := s.lru.Get(key); ok && now.Before(existing.expires) {
		return false, nil
	}

	s.lru.Add(&delivery{
		key:     key,
		body:    append([]byte(nil), body...),
		expires: now.Add(s.ttl),
	})
	return true, nil
}

func (s *memoryStore) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lru.Remove(key)
	return nil
}

// Returns the body of a remembered delivery.
func (s *memoryStore) Body(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lru.Get(key)
	if !ok || !s.now().Before(existing.expires) {
		return nil, false
	}
	return existing.body, true
}

func (s *memoryStore) Len() int {
	return s.lru.Len()
}

func (s *memoryStore) Close() error {
	return nil
}
