// Package cache provides the fingerprint-keyed result cache for discovery runs.
//
// The preferred backend is Redis; any backend failure flips the store
// into an in-process fallback for the remainder of the process
// lifetime. Cache failures degrade effectiveness, never correctness.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonathan/field-discovery/internal/types"
)

// DefaultTTL governs cache record lifetime in the external backend. The
// in-process fallback has no eviction.
const DefaultTTL = time.Hour

// Record is one cached discovery result. Created once per unique
// fingerprint and never mutated after write.
type Record struct {
	Fingerprint string           `json:"fingerprint"`
	Schema      types.Schema     `json:"schema"`
	Stats       types.UsageStats `json:"stats"`
}

// Store is the cache contract the discovery engine depends on. Both
// operations are best-effort: a miss and a backend failure look the same.
type Store interface {
	Get(ctx context.Context, fingerprint string) (*Record, bool)
	Put(ctx context.Context, fingerprint string, rec *Record, ttl time.Duration)
}

// Backend is a fallible external key/value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MemoryStore is a process-lifetime map store with no eviction.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Get looks up a record by fingerprint.
func (s *MemoryStore) Get(_ context.Context, fingerprint string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fingerprint]
	return rec, ok
}

// Put stores a record. The TTL is ignored; the fallback never evicts.
func (s *MemoryStore) Put(_ context.Context, fingerprint string, rec *Record, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[fingerprint] = rec
}

// processFallback is shared by every FallbackStore in the process, so a
// degraded external backend still deduplicates work across runs.
var processFallback = NewMemoryStore()

// FallbackStore prefers an external backend and permanently degrades to
// the in-process store after the first backend failure.
type FallbackStore struct {
	backend  Backend
	fallback *MemoryStore
	degraded atomic.Bool
}

// NewFallbackStore wraps backend with in-process degradation. A nil
// backend starts degraded (memory-only).
func NewFallbackStore(backend Backend) *FallbackStore {
	s := &FallbackStore{backend: backend, fallback: processFallback}
	if backend == nil {
		s.degraded.Store(true)
	}
	return s
}

// Get returns the cached record for fingerprint, if any.
func (s *FallbackStore) Get(ctx context.Context, fingerprint string) (*Record, bool) {
	if s.degraded.Load() {
		return s.fallback.Get(ctx, fingerprint)
	}
	raw, ok, err := s.backend.Get(ctx, fingerprint)
	if err != nil {
		s.degraded.Store(true)
		return s.fallback.Get(ctx, fingerprint)
	}
	if !ok {
		return nil, false
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// Put writes the record under fingerprint. A duplicate put simply
// overwrites with equivalent content.
func (s *FallbackStore) Put(ctx context.Context, fingerprint string, rec *Record, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if s.degraded.Load() {
		s.fallback.Put(ctx, fingerprint, rec, ttl)
		return
	}
	raw, err := encodeRecord(rec)
	if err != nil {
		return
	}
	if err := s.backend.Put(ctx, fingerprint, raw, ttl); err != nil {
		s.degraded.Store(true)
		s.fallback.Put(ctx, fingerprint, rec, ttl)
	}
}

// Degraded reports whether the store has fallen back to process memory.
func (s *FallbackStore) Degraded() bool {
	return s.degraded.Load()
}
