package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"market-intel/internal/metrics"
)

// Store is the process-wide TTL cache every service reads and writes
// through. Entries are treated as immutable once stored; Set is
// last-write-wins. Expiry is lazy on read, with a background janitor
// sweeping stale entries to bound memory.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	hits   atomic.Uint64
	misses atomic.Uint64

	stop      chan struct{}
	closeOnce sync.Once
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats is a point-in-time view of the store's counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Keys   int    `json:"keys"`
}

// DefaultSweepInterval is how often the janitor evicts expired entries.
const DefaultSweepInterval = 30 * time.Second

// New creates a store and starts its sweep janitor. A non-positive interval
// disables the janitor; expiry still applies lazily on read.
func New(sweepInterval time.Duration) *Store {
	s := &Store{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.janitor(sweepInterval)
	}
	return s
}

// Get returns the live value for key. The second return value reports
// whether this read was a cache hit, so callers can surface it per lookup
// instead of consulting shared state afterwards. A read at or past the
// entry's expiry is a miss.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !time.Now().Before(e.expiresAt) {
		s.misses.Add(1)
		metrics.RecordCacheAccess(Namespace(key), false)
		return nil, false
	}
	s.hits.Add(1)
	metrics.RecordCacheAccess(Namespace(key), true)
	return e.value, true
}

// Set stores value under key for ttl, replacing any prior value and expiry
// unconditionally. A non-positive ttl makes the next read an immediate miss.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	metrics.CacheKeys.Set(float64(len(s.entries)))
	s.mu.Unlock()
}

// Stats returns hit/miss counters and the live key count.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	keys := len(s.entries)
	s.mu.RUnlock()
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Keys:   keys,
	}
}

// Flush drops every entry. Counters are kept.
func (s *Store) Flush() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	metrics.CacheKeys.Set(0)
	s.mu.Unlock()
}

// Close stops the janitor. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.stop) })
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
	metrics.CacheKeys.Set(float64(len(s.entries)))
	s.mu.Unlock()
}

// Typed fetches key and asserts it to T. A live entry of the wrong type
// counts as the hit it was; the caller just cannot use it.
func Typed[T any](s *Store, key string) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Namespace returns the first colon-separated segment of a cache key,
// used as the metrics label.
func Namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
