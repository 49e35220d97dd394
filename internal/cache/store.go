package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is a TTL key-value cache shared by read-mostly platform services.
// It is an optimization layer only: every caller must keep a correct
// non-cached fallback path, and cached values are immutable snapshots.
//
// Implementations: Redis (production) or in-memory (local dev / tests).
type Store interface {
	// Get returns the payload stored under key if it is younger than maxAge.
	// maxAge <= 0 accepts any entry that has not passed its own TTL.
	Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool)

	// Set stores the payload with the current timestamp. ttl > 0 bounds how
	// long the entry may be served regardless of the reader's maxAge.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Invalidate removes a single key unconditionally.
	Invalidate(ctx context.Context, key string) error

	// InvalidateByPrefix removes every key with the given string prefix.
	InvalidateByPrefix(ctx context.Context, prefix string) error

	// Clear drops everything owned by this store.
	Clear(ctx context.Context) error
}

// GetJSON reads key and unmarshals it into T. A decode failure is treated as
// a miss; the stale entry is left for the next Set to overwrite.
func GetJSON[T any](ctx context.Context, s Store, key string, maxAge time.Duration) (T, bool) {
	var out T
	raw, ok := s.Get(ctx, key, maxAge)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}
