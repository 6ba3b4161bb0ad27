package viewcache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo is an append-only cache computing each key at most once.
//
// Concurrent first requests for a key coalesce in a singleflight group; the
// winner re-checks the table inside the flight, so a request that arrives
// just after an earlier flight finished still finds the stored result
// instead of computing again. Errors are stored like values.
type memo[K comparable, V any] struct {
	mu     sync.RWMutex
	done   map[K]memoResult[V]
	flight singleflight.Group
	name   func(K) string
}

type memoResult[V any] struct {
	v   V
	err error
}

func newMemo[K comparable, V any](name func(K) string) *memo[K, V] {
	return &memo[K, V]{done: make(map[K]memoResult[V]), name: name}
}

func (m *memo[K, V]) lookup(k K) (memoResult[V], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.done[k]
	return r, ok
}

// get returns the result for k, calling compute when it is absent.
// computed is true only for the caller whose compute ran.
func (m *memo[K, V]) get(k K, compute func() (V, error)) (V, bool, error) {
	if r, ok := m.lookup(k); ok {
		return r.v, false, r.err
	}
	ran := false
	res, _, _ := m.flight.Do(m.name(k), func() (any, error) {
		if r, ok := m.lookup(k); ok {
			return r, nil
		}
		ran = true
		v, err := compute()
		r := memoResult[V]{v: v, err: err}
		m.mu.Lock()
		m.done[k] = r
		m.mu.Unlock()
		return r, nil
	})
	r := res.(memoResult[V])
	return r.v, ran, r.err
}

// len returns the number of stored results.
func (m *memo[K, V]) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.done)
}
