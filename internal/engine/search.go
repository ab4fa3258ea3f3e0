package engine

import (
	"fmt"
	"math"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/history"
)

// Search returns the minimax value of the oracle's position with
// alpha-beta pruning. The oracle is left exactly as it was found, even
// when an error is returned. h holds the frames of the positions played
// so far; each child appends its own.
//
// Moves are visited in the oracle's order. A depth of zero or less
// evaluates the position directly.
func (e *Engine[M]) Search(o board.Oracle[M], depth int, alpha, beta Score, maximizing bool, h history.History) (Score, error) {
	key := SearchKey{
		Position:   Position(o.PositionKey()),
		Depth:      depth,
		Alpha:      alpha,
		Beta:       beta,
		Maximizing: maximizing,
	}
	if s, ok := e.tt.Probe(key); ok {
		return s, nil
	}
	e.nodes.Add(1)

	if depth <= 0 || o.IsTerminal() {
		return e.leaf(o, key, h)
	}

	moves := e.moves.LegalMoves(o)
	if len(moves) == 0 {
		return e.leaf(o, key, h)
	}

	best := NegInfinity
	if !maximizing {
		best = Infinity
	}
	for _, m := range moves {
		score, err := e.child(o, m, depth-1, alpha, beta, !maximizing, h)
		if err != nil {
			return 0, err
		}

		if maximizing {
			best = math.Max(best, score)
			alpha = math.Max(alpha, best)
		} else {
			best = math.Min(best, score)
			beta = math.Min(beta, best)
		}
		if beta <= alpha {
			e.cutoffs.Add(1)
			break
		}
	}

	e.tt.Store(key, best)
	return best, nil
}

// child applies m, searches the resulting position and undoes m on every
// exit path.
func (e *Engine[M]) child(o board.Oracle[M], m M, depth int, alpha, beta Score, maximizing bool, h history.History) (Score, error) {
	o.Apply(m)
	defer o.Undo()
	return e.Search(o, depth, alpha, beta, maximizing, h.Append(o.Encode()))
}

func (e *Engine[M]) leaf(o board.Oracle[M], key SearchKey, h history.History) (Score, error) {
	s, err := e.evaluate(o, key.Maximizing, h)
	if err != nil {
		return 0, err
	}
	e.tt.Store(key, s)
	return s, nil
}

func (e *Engine[M]) evaluate(o board.Oracle[M], maximizing bool, h history.History) (Score, error) {
	e.evaluations.Add(1)

	c := o.SideToMove()
	if e.opts.Perspective == PerspectiveMaximizer && !maximizing {
		c = c.Other()
	}
	v, err := e.eval.Evaluate(h.Padded(), c)
	if err != nil {
		return 0, fmt.Errorf("engine: evaluate %s: %w", o.PositionKey(), err)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: NaN at %s", ErrMalformedScore, o.PositionKey())
	}
	return Clamp(v), nil
}
