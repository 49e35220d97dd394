package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	data     []byte
	storedAt time.Time
	ttl      time.Duration
}

// fresh checks both the entry's own TTL and the reader's maxAge window.
func (e memEntry) fresh(now time.Time, maxAge time.Duration) bool {
	age := now.Sub(e.storedAt)
	if e.ttl > 0 && age >= e.ttl {
		return false
	}
	if maxAge > 0 && age >= maxAge {
		return false
	}
	return true
}

// MemoryStore is a process-local Store. Lazy expiry on Get is authoritative;
// an optional background sweep bounds memory for entries that are never read
// again. Construct instances explicitly and inject them - there is no
// package-level store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry

	sweepEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

type Option func(*MemoryStore)

// WithSweepInterval enables the background sweep. d <= 0 leaves the store
// lazy-expiry only.
func WithSweepInterval(d time.Duration) Option {
	return func(s *MemoryStore) {
		s.sweepEvery = d
	}
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memEntry),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sweepEvery > 0 {
		go s.sweep()
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string, maxAge time.Duration) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !entry.fresh(time.Now(), maxAge) {
		// Only drop entries past their own TTL; a strict reader window must
		// not evict data a more tolerant reader could still use.
		if entry.ttl > 0 && time.Since(entry.storedAt) >= entry.ttl {
			s.mu.Lock()
			delete(s.entries, key)
			s.mu.Unlock()
		}
		return nil, false
	}
	return entry.data, true
}

func (s *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memEntry{data: data, storedAt: time.Now(), ttl: ttl}
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) InvalidateByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memEntry)
	return nil
}

// Close stops the background sweep, if one is running. Safe to call twice.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) deleteExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.ttl > 0 && now.Sub(entry.storedAt) >= entry.ttl {
			delete(s.entries, key)
		}
	}
}
