package query

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// State is the lifecycle state of a cache entry.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateFresh
	StateStale
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Stats counts store activity.
type Stats struct {
	Hits          int64 `json:"hits"          yaml:"hits"`
	Misses        int64 `json:"misses"        yaml:"misses"`
	Fetches       int64 `json:"fetches"       yaml:"fetches"`
	Dedups        int64 `json:"dedups"        yaml:"dedups"`
	Discarded     int64 `json:"discarded"     yaml:"discarded"`
	Invalidations int64 `json:"invalidations" yaml:"invalidations"`
	Superseded    int64 `json:"superseded"    yaml:"superseded"`
	Evictions     int64 `json:"evictions"     yaml:"evictions"`
}

type entry struct {
	state      State
	generation uint64
	fetchedAt  time.Time
	lastSeen   time.Time
	observers  int
	err        error
}

// flight is one shared fetch. Its id keeps a finished flight from being joined.
type flight struct {
	id         string
	generation uint64
	waiters    int
}

// Store is the shared query cache. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	cache   crm.Cache
	logger  crm.Logger
	now     func() time.Time
	entries map[Key]*entry
	flights map[Key]*flight
	group   singleflight.Group
	nextID  uint64
	lastGen uint64
	stats   Stats

	// per target key: last issued and last completed mutation sequence numbers
	issued    map[Key]uint64
	completed map[Key]uint64

	gcTime     time.Duration
	gcInterval time.Duration
	stop       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// NewStore creates a store backed by a memory LRU unless WithCache says otherwise.
func NewStore(opts ...Option) *Store {
	s := &Store{
		cache:      crm.NewMemoryCache(constants.DefaultCacheSize),
		now:        time.Now,
		entries:    make(map[Key]*entry),
		flights:    make(map[Key]*flight),
		issued:     make(map[Key]uint64),
		completed:  make(map[Key]uint64),
		gcTime:     constants.DefaultGCTime,
		gcInterval: constants.DefaultGCInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State returns the state of the entry under key.
func (s *Store) State(key Key) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return StateEmpty
	}

	return e.state
}

// Err returns the error of the last failed fetch of key, if the entry is in the
// error state.
func (s *Store) Err(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.state == StateError {
		return e.err
	}

	return nil
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// Invalidate marks every entry under one of the prefixes stale. Fetches already in
// flight for those entries will not be stored, and later queries start a new
// fetch instead of joining them. It returns the keys that were invalidated.
func (s *Store) Invalidate(prefixes ...Key) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invalidated []Key

	for key, e := range s.entries {
		if !matchesAny(key, prefixes) {
			continue
		}

		s.invalidateLocked(key, e)
		invalidated = append(invalidated, key)
	}

	if len(invalidated) > 0 {
		s.stats.Invalidations += int64(len(invalidated))
		s.debug("query invalidated", map[string]interface{}{"entries": len(invalidated)})
	}

	return invalidated
}

func (s *Store) invalidateLocked(key Key, e *entry) {
	e.generation = s.nextGenerationLocked()
	if e.state != StateEmpty {
		e.state = StateStale
	}

	if f, ok := s.flights[key]; ok {
		s.group.Forget(f.id)
		delete(s.flights, key)
	}
}

// Observe registers a view interested in key. The entry is not collected until
// the returned release function has been called.
func (s *Store) Observe(key Key) func() {
	s.mu.Lock()
	e := s.entryLocked(key)
	e.observers++
	s.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if e, ok := s.entries[key]; ok && e.observers > 0 {
				e.observers--
				e.lastSeen = s.now()
			}
		})
	}
}

// Collect evicts entries nobody observes that were last seen more than the GC time
// ago. It returns the number of evicted entries.
func (s *Store) Collect(ctx context.Context) int {
	s.mu.Lock()

	cutoff := s.now().Add(-s.gcTime)

	var evicted []Key

	for key, e := range s.entries {
		if e.observers > 0 || e.state == StateLoading || e.lastSeen.After(cutoff) {
			continue
		}

		delete(s.entries, key)
		evicted = append(evicted, key)
	}

	s.stats.Evictions += int64(len(evicted))
	s.mu.Unlock()

	for _, key := range evicted {
		err := s.cache.Delete(ctx, key.String())
		if err != nil {
			s.warn("evicting query entry", key, err)
		}
	}

	return len(evicted)
}

// Clear drops every entry and the backend contents, for example on logout.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()

	for key, f := range s.flights {
		s.group.Forget(f.id)
		delete(s.flights, key)
	}

	s.entries = make(map[Key]*entry)
	s.issued = make(map[Key]uint64)
	s.completed = make(map[Key]uint64)
	s.mu.Unlock()

	return s.cache.Clear(ctx)
}

// Start runs Collect periodically until ctx ends or Close is called.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()

		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.gcInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				s.Collect(ctx)
			}
		}
	}()
}

// Close stops the collector and closes the backend when it holds a connection.
func (s *Store) Close() error {
	var err error

	s.closeOnce.Do(func() {
		s.mu.Lock()
		stop, done := s.stop, s.done
		s.mu.Unlock()

		if stop != nil {
			close(stop)
			<-done
		}

		if closer, ok := s.cache.(interface{ Close() error }); ok {
			err = closer.Close()
		}
	})

	return err
}

func (s *Store) entryLocked(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{state: StateEmpty, generation: s.nextGenerationLocked(), lastSeen: s.now()}
		s.entries[key] = e
	}

	return e
}

// join returns the flight for key, starting one when none matches the entry's
// generation. The boolean reports whether an existing flight was joined.
func (s *Store) joinLocked(key Key, e *entry) (*flight, bool) {
	if f, ok := s.flights[key]; ok && f.generation == e.generation {
		f.waiters++
		s.stats.Dedups++

		return f, true
	}

	s.nextID++
	f := &flight{
		id:         key.String() + "#" + strconv.FormatUint(s.nextID, 10),
		generation: e.generation,
		waiters:    1,
	}

	s.flights[key] = f
	s.stats.Fetches++
	e.state = StateLoading

	return f, false
}

// nextGenerationLocked returns a generation no entry has held before, so backend
// contents written before an invalidation, an eviction or a Clear never match.
func (s *Store) nextGenerationLocked() uint64 {
	s.lastGen++

	return s.lastGen
}

// currentLocked returns the entry under key if it still holds generation.
func (s *Store) currentLocked(key Key, generation uint64) *entry {
	e, ok := s.entries[key]
	if !ok || e.generation != generation {
		return nil
	}

	return e
}

// complete records the outcome of a flight. Results of flights overtaken by an
// invalidation are dropped. The backend write happens without holding s.mu, so
// the generation is checked again before the entry is marked fresh.
func (s *Store) complete(ctx context.Context, key Key, f *flight, data []byte, fetchErr error) {
	s.mu.Lock()

	e := s.currentLocked(key, f.generation)
	if e == nil || fetchErr != nil {
		if s.flights[key] == f {
			delete(s.flights, key)
		}

		if e == nil {
			s.discardLocked(key)
		} else {
			e.state = StateError
			e.err = fetchErr
		}

		s.mu.Unlock()

		return
	}

	s.mu.Unlock()

	writeErr := s.write(ctx, key, f.generation, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flights[key] == f {
		delete(s.flights, key)
	}

	e = s.currentLocked(key, f.generation)
	if e == nil {
		s.discardLocked(key)

		return
	}

	s.settleWriteLocked(key, e, writeErr)
}

// write stores data in the backend. Backend expiry runs on the wall clock, which
// is what every backend checks against; the store's own clock only drives
// freshness and collection.
func (s *Store) write(ctx context.Context, key Key, generation uint64, data []byte) error {
	return s.cache.Set(ctx, key.String(), &crm.CacheEntry{
		Data:      data,
		Version:   generation,
		ExpiresAt: time.Now().Add(constants.CacheEntryLifetime),
	})
}

func (s *Store) settleWriteLocked(key Key, e *entry, writeErr error) {
	if writeErr != nil {
		s.warn("storing query result", key, writeErr)
		e.state = StateStale

		return
	}

	now := s.now()
	e.state = StateFresh
	e.err = nil
	e.fetchedAt = now
	e.lastSeen = now
}

func (s *Store) discardLocked(key Key) {
	s.stats.Discarded++
	s.debug("query result discarded", map[string]interface{}{"key": key.String()})
}

func (s *Store) debug(msg string, fields map[string]interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, fields)
	}
}

func (s *Store) warn(msg string, key Key, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, map[string]interface{}{"key": key.String(), "error": err.Error()})
	}
}

func matchesAny(key Key, prefixes []Key) bool {
	for _, prefix := range prefixes {
		if key.Matches(prefix) {
			return true
		}
	}

	return false
}
