package feedcache

import (
	"context"
	"sync"
	"time"

	"github.com/moodmirror/moodmirror/internal/domain/mood"
)

type entry struct {
	result    mood.FeedResult
	expiresAt time.Time
}

// MemoryStore keeps feeds in process memory. Used for dev and when Valkey is unreachable.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements mood.Store.
func (s *MemoryStore) Get(_ context.Context, key string) (mood.FeedResult, bool, error) {
	if key == "" {
		return mood.FeedResult{}, false, nil
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return mood.FeedResult{}, false, nil
	}
	if s.expired(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return mood.FeedResult{}, false, nil
	}
	return e.result, true, nil
}

// Save stores the feed. A non-positive ttl keeps it until the process exits.
func (s *MemoryStore) Save(_ context.Context, key string, result mood.FeedResult, ttl time.Duration) error {
	if key == "" || result.IsSentinel() {
		return nil
	}
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry{result: result, expiresAt: exp}
	s.mu.Unlock()
	return nil
}

// Len reports the number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ mood.Store = (*MemoryStore)(nil)
