package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok := s.Get(ctx, "k", 0)
	if !ok || string(got) != "v" {
		t.Fatalf("Get() = %q, %v; want v, true", got, ok)
	}
	if _, ok := s.Get(ctx, "missing", 0); ok {
		t.Error("Get(missing) = true, want miss")
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.Set(ctx, "k", []byte("v"), 30*time.Millisecond)
	if _, ok := s.Get(ctx, "k", 0); !ok {
		t.Fatal("entry missing before TTL")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := s.Get(ctx, "k", 0); ok {
		t.Error("entry served past its TTL")
	}

	// Lazy expiry on Get drops the entry.
	s.mu.RLock()
	_, present := s.entries["k"]
	s.mu.RUnlock()
	if present {
		t.Error("expired entry not dropped on Get")
	}
}

// A strict reader window is a miss for that reader only; the entry must stay
// available to readers with a looser maxAge.
func TestMemoryStoreReaderMaxAge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.Set(ctx, "k", []byte("v"), time.Minute)
	time.Sleep(30 * time.Millisecond)

	if _, ok := s.Get(ctx, "k", 10*time.Millisecond); ok {
		t.Error("entry served past the reader's maxAge")
	}
	if _, ok := s.Get(ctx, "k", time.Minute); !ok {
		t.Error("strict reader evicted an entry still within its TTL")
	}
}

func TestMemoryStoreInvalidate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.Set(ctx, "k", []byte("v"), time.Minute)
	if err := s.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok := s.Get(ctx, "k", 0); ok {
		t.Error("entry survived Invalidate")
	}
}

func TestMemoryStoreInvalidateByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.Set(ctx, "user:1:conversations", []byte("a"), time.Minute)
	s.Set(ctx, "user:1:profile", []byte("b"), time.Minute)
	s.Set(ctx, "user:2:conversations", []byte("c"), time.Minute)

	if err := s.InvalidateByPrefix(ctx, "user:1:"); err != nil {
		t.Fatalf("InvalidateByPrefix() error = %v", err)
	}

	for _, key := range []string{"user:1:conversations", "user:1:profile"} {
		if _, ok := s.Get(ctx, key, 0); ok {
			t.Errorf("%s survived prefix invalidation", key)
		}
	}
	if _, ok := s.Get(ctx, "user:2:conversations", 0); !ok {
		t.Error("user:2:conversations dropped by an unrelated prefix")
	}
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.Set(ctx, "a", []byte("1"), time.Minute)
	s.Set(ctx, "b", []byte("2"), time.Minute)
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok := s.Get(ctx, "a", 0); ok {
		t.Error("entry survived Clear")
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithSweepInterval(10 * time.Millisecond))
	defer s.Close()

	s.Set(ctx, "short", []byte("v"), 15*time.Millisecond)
	s.Set(ctx, "long", []byte("v"), time.Minute)

	time.Sleep(60 * time.Millisecond)

	s.mu.RLock()
	_, shortPresent := s.entries["short"]
	_, longPresent := s.entries["long"]
	s.mu.RUnlock()

	if shortPresent {
		t.Error("sweep did not drop the expired entry")
	}
	if !longPresent {
		t.Error("sweep dropped a live entry")
	}
}

func TestMemoryStoreCloseTwice(t *testing.T) {
	s := NewMemoryStore(WithSweepInterval(time.Minute))
	s.Close()
	s.Close()
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := SetJSON(ctx, s, "p", payload{Name: "x", Count: 3}, time.Minute); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	got, ok := GetJSON[payload](ctx, s, "p", 0)
	if !ok {
		t.Fatal("GetJSON() miss for stored key")
	}
	if got.Name != "x" || got.Count != 3 {
		t.Errorf("GetJSON() = %+v, want {x 3}", got)
	}
}

func TestGetJSONDecodeFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.Set(ctx, "bad", []byte("{not json"), time.Minute)
	if _, ok := GetJSON[map[string]int](ctx, s, "bad", 0); ok {
		t.Error("GetJSON() = hit for undecodable payload, want miss")
	}
}
