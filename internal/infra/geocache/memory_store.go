package geocache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/astro-clock/internal/domain/reading"
	"github.com/yanqian/astro-clock/pkg/util"
)

const (
	// DefaultMaxEntries bounds the number of place names held in memory.
	DefaultMaxEntries = 10000
	sweepInterval     = time.Minute
)

type entry struct {
	coords    reading.GeoCoordinates
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryStore keeps geocoding results in process memory. Expired entries are
// swept periodically on Store; at maxEntries the oldest entry makes room.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	lastSweep  time.Time
	now        func() time.Time
}

// NewMemoryStore constructs an empty store holding up to DefaultMaxEntries.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]entry),
		maxEntries: DefaultMaxEntries,
		now:        util.NowUTC,
	}
}

// Lookup implements reading.GeoCache.
func (s *MemoryStore) Lookup(_ context.Context, key string) (reading.GeoCoordinates, bool, error) {
	s.mu.RLock()
	record, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return reading.GeoCoordinates{}, false, nil
	}
	if !record.expiresAt.IsZero() && !record.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return reading.GeoCoordinates{}, false, nil
	}
	return record.coords, true, nil
}

// Store caches coords with an optional TTL. Unresolved values are ignored.
func (s *MemoryStore) Store(_ context.Context, key string, coords reading.GeoCoordinates, ttl time.Duration) error {
	if !coords.Resolved {
		return nil
	}
	now := s.now()
	exp := time.Time{}
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweepLocked(now)
	}
	if _, exists := s.entries[key]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.sweepLocked(now)
		if len(s.entries) >= s.maxEntries {
			s.evictOldestLocked()
		}
	}
	s.entries[key] = entry{coords: coords, storedAt: now, expiresAt: exp}
	return nil
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, record := range s.entries {
		if !record.expiresAt.IsZero() && !record.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, record := range s.entries {
		if oldestKey == "" || record.storedAt.Before(oldest) {
			oldestKey, oldest = key, record.storedAt
		}
	}
	delete(s.entries, oldestKey)
}

// Len reports the number of cached entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ reading.GeoCache = (*MemoryStore)(nil)
