package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowRecord struct {
	count     int64
	windowEnd time.Time
}

// MemoryStore is the in-process Store backend. Expired windows are reset on
// the next increment for the same key; there is no background cleanup.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*windowRecord
}

// NewMemoryStore creates an empty in-memory window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*windowRecord),
	}
}

// Increment records one request for key in the current window.
func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	rec, ok := s.records[key]
	if !ok || rec.windowEnd.Before(now) {
		rec = &windowRecord{windowEnd: now.Add(window)}
		s.records[key] = rec
	}

	rec.count++
	return rec.count, time.Until(rec.windowEnd), nil
}

// Size returns the number of tracked keys.
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
