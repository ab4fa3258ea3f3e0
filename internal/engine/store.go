package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
)

// store is the key/value backend shared by the move cache and the
// transposition table.
type store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, v V)
	Len() int
	Clear()
	Close()
}

// ranger is implemented by stores whose contents can be enumerated.
type ranger[V any] interface {
	Range(fn func(key string, v V) bool)
}

// Number of shards for map locking (power of 2 for fast modulo)
const shardCount = 64
const shardMask = shardCount - 1

type shard[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

// shardedStore is an unbounded map split into RWMutex-protected shards.
// Entries are never evicted.
type shardedStore[V any] struct {
	shards [shardCount]shard[V]
	size   atomic.Int64
}

func newShardedStore[V any]() *shardedStore[V] {
	s := &shardedStore[V]{}
	for i := range s.shards {
		s.shards[i].m = make(map[string]V)
	}
	return s
}

func (s *shardedStore[V]) shardFor(key string) *shard[V] {
	return &s.shards[xxhash.Sum64String(key)&shardMask]
}

func (s *shardedStore[V]) Get(key string) (V, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.m[key]
	sh.mu.RUnlock()
	return v, ok
}

func (s *shardedStore[V]) Set(key string, v V) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	if _, ok := sh.m[key]; !ok {
		s.size.Add(1)
	}
	sh.m[key] = v
	sh.mu.Unlock()
}

func (s *shardedStore[V]) Len() int {
	return int(s.size.Load())
}

func (s *shardedStore[V]) Clear() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		s.size.Add(-int64(len(sh.m)))
		sh.m = make(map[string]V)
		sh.mu.Unlock()
	}
}

func (s *shardedStore[V]) Close() {}

// Range calls fn for every entry until fn returns false. Shards are
// visited one at a time; concurrent writers may or may not be observed.
func (s *shardedStore[V]) Range(fn func(key string, v V) bool) {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for k, v := range sh.m {
			if !fn(k, v) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// boundedStore caps memory with a ristretto cache. Admission is TinyLFU,
// so a Set may be dropped and a recent entry may be evicted before an
// older one. Sets are buffered and become visible asynchronously; call
// Wait when a read must observe earlier writes.
type boundedStore[V any] struct {
	cache *ristretto.Cache[string, V]
}

func newBoundedStore[V any](capacity int) (*boundedStore[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("engine: cache capacity must be positive, got %d", capacity)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters:        int64(capacity) * 10,
		MaxCost:            int64(capacity),
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: create bounded cache: %w", err)
	}
	return &boundedStore[V]{cache: cache}, nil
}

func (s *boundedStore[V]) Get(key string) (V, bool) {
	return s.cache.Get(key)
}

func (s *boundedStore[V]) Set(key string, v V) {
	s.cache.Set(key, v, 1)
}

// Len is approximate: it counts admitted minus evicted keys.
func (s *boundedStore[V]) Len() int {
	m := s.cache.Metrics
	if m == nil {
		return 0
	}
	n := int64(m.KeysAdded()) - int64(m.KeysEvicted())
	if n < 0 {
		return 0
	}
	return int(n)
}

func (s *boundedStore[V]) Clear() {
	s.cache.Clear()
}

func (s *boundedStore[V]) Close() {
	s.cache.Close()
}

// Wait blocks until buffered writes have been applied.
func (s *boundedStore[V]) Wait() {
	s.cache.Wait()
}

// newStore returns an unbounded sharded store when capacity is zero and a
// bounded ristretto store otherwise.
func newStore[V any](capacity int) (store[V], error) {
	if capacity == 0 {
		return newShardedStore[V](), nil
	}
	return newBoundedStore[V](capacity)
}
