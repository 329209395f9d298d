package query

import (
	"context"
	"encoding/json"
)

// Result is the outcome of a mutation.
type Result[T any] struct {
	Value T
	Err   error

	// Superseded is set when a newer mutation on the same target completed first.
	// The value is still returned but was not written to the cache.
	Superseded bool

	// Invalidated lists the entries marked stale by the mutation.
	Invalidated []Key
}

// OK reports whether the mutation succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Get returns the value and the error.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Mutate runs a write. On success every prefix given with Invalidates is
// invalidated and, with Updates, the returned value is stored. On failure the
// cache is left exactly as it was.
func Mutate[T any](ctx context.Context, s *Store, run func(ctx context.Context) (T, error), opts ...MutationOption) Result[T] {
	options := mutationOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var sequence uint64

	if options.target != nil {
		s.mu.Lock()
		s.issued[*options.target]++
		sequence = s.issued[*options.target]
		s.mu.Unlock()
	}

	value, err := run(ctx)
	if err != nil {
		return Result[T]{Value: value, Err: err}
	}

	result := Result[T]{Value: value}

	if options.target != nil {
		result.Superseded = s.settle(*options.target, sequence)
	}

	if len(options.invalidates) > 0 {
		result.Invalidated = s.Invalidate(options.invalidates...)
	}

	if options.updates != nil && !result.Superseded {
		s.put(ctx, *options.updates, value)
	}

	return result
}

// settle records a completed mutation and reports whether a newer one on the same
// target completed before it.
func (s *Store) settle(target Key, sequence uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sequence < s.completed[target] {
		s.stats.Superseded++
		s.debug("mutation superseded", map[string]interface{}{"key": target.String()})

		return true
	}

	s.completed[target] = sequence

	return false
}

// put stores value as the fresh content of key. In-flight fetches of key are
// overtaken and will not overwrite it.
func (s *Store) put(ctx context.Context, key Key, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.warn("encoding mutation result", key, err)
		s.Invalidate(key)

		return
	}

	s.mu.Lock()
	e := s.entryLocked(key)
	s.invalidateLocked(key, e)
	generation := e.generation
	s.mu.Unlock()

	writeErr := s.write(ctx, key, generation, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.currentLocked(key, generation); current != nil {
		s.settleWriteLocked(key, current, writeErr)
	}
}
