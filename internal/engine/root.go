package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/history"
)

// SelectBestMove scores every legal move with a full-window search of
// depth-1 and returns the best one for the given side. Ties keep the
// earliest move in oracle order. ok is false when there are no legal
// moves.
//
// ctx is checked between root moves only.
func (e *Engine[M]) SelectBestMove(ctx context.Context, o board.Oracle[M], depth int, maximizing bool, h history.History) (best M, ok bool, err error) {
	moves := e.moves.LegalMoves(o)
	if len(moves) == 0 {
		return best, false, nil
	}

	start := time.Now()
	before := e.Stats()

	var scores []Score
	if e.opts.Workers > 1 && len(moves) > 1 {
		scores, err = e.scoreParallel(ctx, o, moves, depth, maximizing, h, start)
	} else {
		scores, err = e.scoreSequential(ctx, o, moves, depth, maximizing, h, start)
	}
	if err != nil {
		return best, false, err
	}

	idx := pickBest(scores, maximizing)
	best = moves[idx]

	after := e.Stats()
	e.log.Infow("root search complete",
		"depth", depth,
		"moves", len(moves),
		"best", fmt.Sprint(best),
		"score", scores[idx],
		"nodes", humanize.Comma(int64(after.Nodes-before.Nodes)),
		"tt_entries", humanize.Comma(int64(after.TableEntries)),
		"tt_hit_rate", fmt.Sprintf("%.1f%%", e.tt.HitRate()),
		"elapsed", time.Since(start),
	)
	return best, true, nil
}

// BestMove searches for the side to move, with White maximizing.
func (e *Engine[M]) BestMove(ctx context.Context, o board.Oracle[M], depth int, h history.History) (M, bool, error) {
	return e.SelectBestMove(ctx, o, depth, o.SideToMove() == board.White, h)
}

// pickBest returns the index of the best score. Only strict improvements
// replace the incumbent.
func pickBest(scores []Score, maximizing bool) int {
	idx := 0
	for i := 1; i < len(scores); i++ {
		if maximizing && scores[i] > scores[idx] || !maximizing && scores[i] < scores[idx] {
			idx = i
		}
	}
	return idx
}

func (e *Engine[M]) scoreSequential(ctx context.Context, o board.Oracle[M], moves []M, depth int, maximizing bool, h history.History, start time.Time) ([]Score, error) {
	scores := make([]Score, len(moves))
	for i, m := range moves {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("engine: root search interrupted: %w", err)
		}
		s, err := e.child(o, m, depth-1, NegInfinity, Infinity, !maximizing, h)
		if err != nil {
			return nil, err
		}
		scores[i] = s
		e.report(i+1, len(moves), m, s, start)
	}
	return scores, nil
}

// scoreParallel searches root moves on forked oracles. Results are
// written by index and compared in oracle order. The choice matches the
// sequential one only when the evaluator reads just the last frame: table
// keys leave out history, so with a history-aware evaluator the first
// worker to store a key decides its value.
func (e *Engine[M]) scoreParallel(ctx context.Context, o board.Oracle[M], moves []M, depth int, maximizing bool, h history.History, start time.Time) ([]Score, error) {
	scores := make([]Score, len(moves))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, m := range moves {
		fork := o.Fork()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("engine: root search interrupted: %w", err)
			}
			s, err := e.child(fork, m, depth-1, NegInfinity, Infinity, !maximizing, h)
			if err != nil {
				return err
			}
			scores[i] = s

			mu.Lock()
			done++
			e.report(done, len(moves), m, s, start)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (e *Engine[M]) report(done, total int, m M, s Score, start time.Time) {
	elapsed := time.Since(start)
	e.log.Debugw("root move scored", "done", done, "total", total, "move", fmt.Sprint(m), "score", s)
	if e.opts.OnProgress != nil {
		e.opts.OnProgress(Progress{
			Done:    done,
			Total:   total,
			Move:    fmt.Sprint(m),
			Score:   s,
			Elapsed: elapsed,
		})
	}
}
