package engine

import (
	"sync/atomic"

	"github.com/hailam/chessplay-minimax/internal/board"
)

// MoveCache memoizes legal move generation by position. The returned
// slices are shared and must not be modified.
type MoveCache[M any] struct {
	store  store[[]M]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMoveCache creates a move cache. A capacity of zero means unbounded.
func NewMoveCache[M any](capacity int) (*MoveCache[M], error) {
	s, err := newStore[[]M](capacity)
	if err != nil {
		return nil, err
	}
	return &MoveCache[M]{store: s}, nil
}

// LegalMoves returns the legal moves of the oracle's current position,
// generating them on first request.
func (c *MoveCache[M]) LegalMoves(o board.Oracle[M]) []M {
	key := o.PositionKey()
	if moves, ok := c.store.Get(key); ok {
		c.hits.Add(1)
		return moves
	}
	c.misses.Add(1)

	moves := o.LegalMoves()
	c.store.Set(key, moves)
	return moves
}

// Get returns the cached moves for a position without generating them.
func (c *MoveCache[M]) Get(p Position) ([]M, bool) {
	return c.store.Get(string(p))
}

// Put stores moves for a position.
func (c *MoveCache[M]) Put(p Position, moves []M) {
	c.store.Set(string(p), moves)
}

// Len returns the number of cached positions.
func (c *MoveCache[M]) Len() int {
	return c.store.Len()
}

// Hits returns the number of cache hits.
func (c *MoveCache[M]) Hits() uint64 {
	return c.hits.Load()
}

// Misses returns the number of generations.
func (c *MoveCache[M]) Misses() uint64 {
	return c.misses.Load()
}

// Clear empties the cache and resets statistics.
func (c *MoveCache[M]) Clear() {
	c.store.Clear()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Close releases the backing store.
func (c *MoveCache[M]) Close() {
	c.store.Close()
}

func (c *MoveCache[M]) each(fn func(p Position, moves []M)) bool {
	r, ok := c.store.(ranger[[]M])
	if !ok {
		return false
	}
	r.Range(func(key string, moves []M) bool {
		fn(Position(key), moves)
		return true
	})
	return true
}
