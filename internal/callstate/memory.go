package callstate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arassiq/SafeSenior/internal/domain"
)

type memoryEntry struct {
	call      *domain.Call
	expiresAt time.Time
}

// MemoryStore is the demo-mode call store. Expired entries are evicted
// lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryStore creates an in-process call store. A non-positive ttl
// falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Put writes the call record, refreshing its TTL.
func (s *MemoryStore) Put(_ context.Context, call *domain.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *call
	s.entries[call.ID] = memoryEntry{
		call:      &copied,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Get loads one call record.
func (s *MemoryStore) Get(_ context.Context, callID string) (*domain.Call, error) {
	s.mu.RLock()
	entry, ok := s.entries[callID]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, domain.ErrCallNotFound
	}

	copied := *entry.call
	return &copied, nil
}

// List returns the most recently started live records.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*domain.Call, error) {
	now := time.Now()

	s.mu.Lock()
	calls := make([]*domain.Call, 0, len(s.entries))
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			continue
		}
		copied := *entry.call
		calls = append(calls, &copied)
	}
	s.mu.Unlock()

	sort.Slice(calls, func(i, j int) bool {
		return calls[i].StartedAt.After(calls[j].StartedAt)
	})
	if limit > 0 && len(calls) > limit {
		calls = calls[:limit]
	}
	return calls, nil
}
