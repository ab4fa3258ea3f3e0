package engine

import "sync/atomic"

// TranspositionTable memoizes search results by exact SearchKey.
// It is safe for concurrent use by root workers.
type TranspositionTable struct {
	store store[Score]

	// Statistics (atomic for thread-safety)
	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a table. A capacity of zero means
// unbounded; otherwise at most capacity entries are kept.
func NewTranspositionTable(capacity int) (*TranspositionTable, error) {
	s, err := newStore[Score](capacity)
	if err != nil {
		return nil, err
	}
	return &TranspositionTable{store: s}, nil
}

// Probe looks up a search result.
func (tt *TranspositionTable) Probe(key SearchKey) (Score, bool) {
	tt.probes.Add(1)
	s, ok := tt.store.Get(key.String())
	if ok {
		tt.hits.Add(1)
	}
	return s, ok
}

// Store records a search result, replacing any earlier one for key.
func (tt *TranspositionTable) Store(key SearchKey, s Score) {
	tt.store.Set(key.String(), s)
}

// Clear empties the table and resets statistics.
func (tt *TranspositionTable) Clear() {
	tt.store.Clear()
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// Close releases the backing store.
func (tt *TranspositionTable) Close() {
	tt.store.Close()
}

// Len returns the number of entries in the table.
func (tt *TranspositionTable) Len() int {
	return tt.store.Len()
}

// Hits returns the number of successful probes.
func (tt *TranspositionTable) Hits() uint64 {
	return tt.hits.Load()
}

// Probes returns the number of probes.
func (tt *TranspositionTable) Probes() uint64 {
	return tt.probes.Load()
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// each enumerates entries; it reports false when the backing store
// cannot be enumerated. Keys that fail to parse are skipped.
func (tt *TranspositionTable) each(fn func(k SearchKey, s Score)) bool {
	r, ok := tt.store.(ranger[Score])
	if !ok {
		return false
	}
	r.Range(func(key string, s Score) bool {
		if k, err := ParseSearchKey(key); err == nil {
			fn(k, s)
		}
		return true
	})
	return true
}
