// Package ratelimit gates lead submissions with a per-client cooldown.
//
// Two backings exist: MemoryStore keeps state in process and is best effort per
// instance, RedisStore shares the cooldown across instances. Callers only see
// the Limiter interface.
package ratelimit

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultMaxEntries is the record count above which MemoryStore evicts.
const DefaultMaxEntries = 1000

// Limiter decides whether a client identifier may submit now. It never errors.
type Limiter interface {
	Allow(ctx context.Context, id string) bool
}

// MemoryStore remembers the last accepted submission per identifier.
type MemoryStore struct {
	mu         sync.Mutex
	last       map[string]time.Time
	cooldown   time.Duration
	maxEntries int
	now        func() time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMaxEntries sets the size above which the oldest half is evicted.
func WithMaxEntries(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-process cooldown limiter.
func NewMemoryStore(cooldown time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		last:       make(map[string]time.Time),
		cooldown:   cooldown,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow records now and returns true when id has no record or its last
// accepted submission is older than the cooldown. A blocked call leaves the
// stored timestamp untouched.
func (s *MemoryStore) Allow(_ context.Context, id string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.last[id]; ok && now.Sub(last) <= s.cooldown {
		return false
	}
	s.last[id] = now
	if len(s.last) > s.maxEntries {
		s.evictOldestHalf()
	}
	return true
}

// Len reports the number of tracked identifiers.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

// evictOldestHalf must be called with mu held.
func (s *MemoryStore) evictOldestHalf() {
	type entry struct {
		id string
		at time.Time
	}
	entries := make([]entry, 0, len(s.last))
	for id, at := range s.last {
		entries = append(entries, entry{id: id, at: at})
	}
	slices.SortFunc(entries, func(a, b entry) int { return a.at.Compare(b.at) })
	for _, e := range entries[:len(entries)/2] {
		delete(s.last, e.id)
	}
}

var _ Limiter = (*MemoryStore)(nil)
