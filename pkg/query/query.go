package query

import (
	"context"
	"encoding/json"
	"fmt"
)

// Fetcher loads the value of a key from the server.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query returns the value under key, fetching it when the entry is not fresh.
// Concurrent calls for the same key share one fetch. The fetch runs detached from
// the caller's cancellation: a caller whose context ends gets ctx.Err() back while
// the fetch completes and fills the cache for the next observer.
func Query[T any](ctx context.Context, s *Store, key Key, fetch Fetcher[T], opts ...QueryOption) (T, error) {
	var zero T

	options := queryOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()

	e := s.entryLocked(key)
	now := s.now()
	e.lastSeen = now
	fresh := e.state == StateFresh && now.Before(e.fetchedAt.Add(options.staleTime))
	generation := e.generation

	s.mu.Unlock()

	// Backend reads run unlocked. A value written for another generation is a miss.
	if fresh {
		cached, err := s.cache.Get(ctx, key.String())
		if err == nil && cached.Version == generation {
			s.mu.Lock()
			s.stats.Hits++
			s.mu.Unlock()

			return decodeValue[T](key, cached.Data)
		}
	}

	s.mu.Lock()

	e = s.entryLocked(key)
	if e.state == StateFresh {
		e.state = StateStale
	}

	s.stats.Misses++

	f, joined := s.joinLocked(key, e)
	if joined {
		s.debug("query joined in-flight fetch", map[string]interface{}{"key": key.String()})
	}

	detached := context.WithoutCancel(ctx)
	results := s.group.DoChan(f.id, func() (interface{}, error) {
		value, err := fetch(detached)

		var data []byte
		if err == nil {
			data, err = json.Marshal(value)
			if err != nil {
				err = fmt.Errorf("encoding %s: %w", key, err)
			}
		}

		s.complete(detached, key, f, data, err)

		return data, err
	})

	s.mu.Unlock()

	select {
	case result := <-results:
		if result.Err != nil {
			return zero, result.Err
		}

		data, _ := result.Val.([]byte)

		return decodeValue[T](key, data)

	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func decodeValue[T any](key Key, data []byte) (T, error) {
	var value T

	err := json.Unmarshal(data, &value)
	if err != nil {
		var zero T

		return zero, fmt.Errorf("decoding cached %s: %w", key, err)
	}

	return value, nil
}
