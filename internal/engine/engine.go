package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/chessplay-minimax/internal/history"
)

// Progress is reported after each root move has been scored.
type Progress struct {
	Done    int
	Total   int
	Move    string
	Score   Score
	Elapsed time.Duration
}

// Options configures an Engine.
type Options struct {
	Logger            *zap.SugaredLogger
	MaxMoves          int
	TableCapacity     int // 0 = unbounded
	MoveCacheCapacity int // 0 = unbounded
	Workers           int
	Perspective       Perspective
	OnProgress        func(Progress)
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMaxMoves sets the history window length.
func WithMaxMoves(n int) Option {
	return func(o *Options) { o.MaxMoves = n }
}

// WithTableCapacity bounds the transposition table.
func WithTableCapacity(n int) Option {
	return func(o *Options) { o.TableCapacity = n }
}

// WithMoveCacheCapacity bounds the legal-move cache.
func WithMoveCacheCapacity(n int) Option {
	return func(o *Options) { o.MoveCacheCapacity = n }
}

// WithWorkers sets how many root moves are searched concurrently.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithPerspective selects the leaf evaluation perspective.
func WithPerspective(p Perspective) Option {
	return func(o *Options) { o.Perspective = p }
}

// WithProgress installs a root progress callback. In parallel mode it is
// called from worker goroutines, one call at a time.
func WithProgress(fn func(Progress)) Option {
	return func(o *Options) { o.OnProgress = fn }
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Nodes            uint64
	Evaluations      uint64
	Cutoffs          uint64
	TableProbes      uint64
	TableHits        uint64
	TableEntries     int
	MoveCacheHits    uint64
	MoveCacheMisses  uint64
	MoveCacheEntries int
}

// Engine searches game trees over an Oracle with move type M. The caches
// persist across calls; an Engine may be shared by concurrent searches
// on distinct oracles.
type Engine[M any] struct {
	eval  Evaluator
	moves *MoveCache[M]
	tt    *TranspositionTable
	opts  Options
	log   *zap.SugaredLogger

	nodes       atomic.Uint64
	evaluations atomic.Uint64
	cutoffs     atomic.Uint64
}

// New creates an engine using eval for leaf positions.
func New[M any](eval Evaluator, opts ...Option) (*Engine[M], error) {
	if eval == nil {
		return nil, errors.New("engine: nil evaluator")
	}
	o := Options{
		MaxMoves: history.DefaultMaxMoves,
		Workers:  1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	if o.MaxMoves <= 0 {
		return nil, fmt.Errorf("engine: max moves must be positive, got %d", o.MaxMoves)
	}
	if o.TableCapacity < 0 || o.MoveCacheCapacity < 0 {
		return nil, errors.New("engine: cache capacity must not be negative")
	}
	if o.Workers < 1 {
		o.Workers = 1
	}

	tt, err := NewTranspositionTable(o.TableCapacity)
	if err != nil {
		return nil, err
	}
	moves, err := NewMoveCache[M](o.MoveCacheCapacity)
	if err != nil {
		tt.Close()
		return nil, err
	}

	return &Engine[M]{
		eval:  eval,
		moves: moves,
		tt:    tt,
		opts:  o,
		log:   o.Logger.Named("engine"),
	}, nil
}

// NewHistory returns an empty history sized for this engine.
func (e *Engine[M]) NewHistory() history.History {
	return history.New(e.opts.MaxMoves)
}

// Options returns the effective configuration.
func (e *Engine[M]) Options() Options {
	return e.opts
}

// Table returns the transposition table.
func (e *Engine[M]) Table() *TranspositionTable {
	return e.tt
}

// MoveCache returns the legal-move cache.
func (e *Engine[M]) MoveCache() *MoveCache[M] {
	return e.moves
}

// SetProgress replaces the progress callback. It must not be called while
// a root search is running.
func (e *Engine[M]) SetProgress(fn func(Progress)) {
	e.opts.OnProgress = fn
}

// Stats returns the current counters.
func (e *Engine[M]) Stats() Stats {
	return Stats{
		Nodes:            e.nodes.Load(),
		Evaluations:      e.evaluations.Load(),
		Cutoffs:          e.cutoffs.Load(),
		TableProbes:      e.tt.Probes(),
		TableHits:        e.tt.Hits(),
		TableEntries:     e.tt.Len(),
		MoveCacheHits:    e.moves.Hits(),
		MoveCacheMisses:  e.moves.Misses(),
		MoveCacheEntries: e.moves.Len(),
	}
}

// Clear empties both caches and resets counters.
func (e *Engine[M]) Clear() {
	e.tt.Clear()
	e.moves.Clear()
	e.nodes.Store(0)
	e.evaluations.Store(0)
	e.cutoffs.Store(0)
}

// Close releases cache resources.
func (e *Engine[M]) Close() {
	e.tt.Close()
	e.moves.Close()
}

// Snapshot is a copy of the engine caches.
type Snapshot[M any] struct {
	Table map[SearchKey]Score
	Moves map[Position][]M
}

// Snapshot copies both caches. It fails with ErrSnapshotUnsupported when
// either cache is bounded.
func (e *Engine[M]) Snapshot() (Snapshot[M], error) {
	snap := Snapshot[M]{
		Table: make(map[SearchKey]Score, e.tt.Len()),
		Moves: make(map[Position][]M, e.moves.Len()),
	}
	if !e.tt.each(func(k SearchKey, s Score) { snap.Table[k] = s }) {
		return Snapshot[M]{}, ErrSnapshotUnsupported
	}
	if !e.moves.each(func(p Position, moves []M) { snap.Moves[p] = moves }) {
		return Snapshot[M]{}, ErrSnapshotUnsupported
	}
	return snap, nil
}

// Restore merges a snapshot into the caches. Snapshot entries win over
// existing ones with the same key.
func (e *Engine[M]) Restore(snap Snapshot[M]) {
	for k, s := range snap.Table {
		e.tt.Store(k, Clamp(s))
	}
	for p, moves := range snap.Moves {
		e.moves.Put(p, moves)
	}
	e.log.Debugw("restored caches", "table", len(snap.Table), "moves", len(snap.Moves))
}
