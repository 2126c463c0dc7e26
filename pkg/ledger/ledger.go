// Package ledger tracks how many questions each client has had answered over
// the lifetime of the process. Entries are created on first use and never
// evicted; the memory backend grows without bound, which is an accepted
// limitation of the session model.
package ledger

import (
	"context"
	"sync"
)

// Store is the attempt counter contract. Get returns 0 for unseen ids.
// Increment adds one and returns the new count.
//
// Note the admission check and the increment are separate calls on purpose:
// the handler only increments after a successful answer, so the
// read-check-increment sequence is not atomic across the upstream call. Two
// concurrent requests from one client can both pass the check. The count is
// eventually consistent, not a hard cap.
type Store interface {
	Get(ctx context.Context, id string) (int, error)
	Increment(ctx context.Context, id string) (int, error)
}

// MemoryStore is the in-process Store backend.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts: make(map[string]int),
	}
}

// Get returns the current count for id.
func (s *MemoryStore) Get(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[id], nil
}

// Increment adds one to the count for id and returns the new count.
func (s *MemoryStore) Increment(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id]++
	return s.counts[id], nil
}

// Size returns the number of tracked clients.
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counts)
}
