package query

import (
	"time"

	"github.com/freddy208/crmprospect/pkg/crm"
)

// Option configures a Store.
type Option func(*Store)

// WithCache sets the backend holding encoded values. The default is a memory LRU.
func WithCache(cache crm.Cache) Option {
	return func(s *Store) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger crm.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithGCTime sets how long an unobserved entry survives before Collect evicts it.
func WithGCTime(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.gcTime = d
		}
	}
}

// WithGCInterval sets how often Start runs Collect.
func WithGCInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.gcInterval = d
		}
	}
}

// WithClock replaces time.Now for freshness and collection. Backend expiry always
// uses the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// QueryOption configures a single Query call.
type QueryOption func(*queryOptions)

type queryOptions struct {
	staleTime time.Duration
}

// WithStaleTime keeps a fetched value fresh for d. The default of zero makes every
// observation refetch, while concurrent observations still share one fetch.
func WithStaleTime(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		if d > 0 {
			o.staleTime = d
		}
	}
}

// MutationOption configures a Mutate call.
type MutationOption func(*mutationOptions)

type mutationOptions struct {
	invalidates []Key
	updates     *Key
	target      *Key
}

// Invalidates lists the prefixes to invalidate when the mutation succeeds.
func Invalidates(prefixes ...Key) MutationOption {
	return func(o *mutationOptions) {
		o.invalidates = append(o.invalidates, prefixes...)
	}
}

// Updates stores the value returned by a successful mutation under key, unless a
// newer mutation on the same key has already completed.
func Updates(key Key) MutationOption {
	return func(o *mutationOptions) {
		o.updates = &key
		if o.target == nil {
			o.target = &key
		}
	}
}

// WithTarget sequences the mutation against others on the same key without
// storing its result.
func WithTarget(key Key) MutationOption {
	return func(o *mutationOptions) {
		o.target = &key
	}
}
