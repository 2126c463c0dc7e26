package ledger

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryStore_GetUnseenID(t *testing.T) {
	store := NewMemoryStore()

	n, err := store.Get(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 for unseen id, got %d", n)
	}
}

func TestMemoryStore_Increment(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		n, err := store.Increment(ctx, "203.0.113.7")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != want {
			t.Errorf("increment %d: got %d", want, n)
		}
	}

	n, _ := store.Get(ctx, "203.0.113.7")
	if n != 3 {
		t.Errorf("expected count 3 after three increments, got %d", n)
	}

	// Other ids are unaffected
	n, _ = store.Get(ctx, "198.51.100.1")
	if n != 0 {
		t.Errorf("expected unrelated id to stay at 0, got %d", n)
	}
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Increment(ctx, "shared"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	n, _ := store.Get(ctx, "shared")
	if n != 50 {
		t.Errorf("expected 50 after concurrent increments, got %d", n)
	}
}

func TestMemoryStore_Size(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, _ = store.Increment(ctx, "a")
	_, _ = store.Increment(ctx, "a")
	_, _ = store.Increment(ctx, "b")

	if got := store.Size(); got != 2 {
		t.Errorf("expected 2 tracked clients, got %d", got)
	}
}
