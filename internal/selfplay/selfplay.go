// Package selfplay plays the engine against itself.
package selfplay

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/notnil/chess"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/engine"
	"github.com/hailam/chessplay-minimax/internal/storage"
)

const separator = "==="

// Options controls a self-play game.
type Options struct {
	Depth     int
	MaxPlies  int // 0 = until the game ends
	Evaluator string
	// Out receives the board after every move and the final summary.
	Out io.Writer
	// OnMove is called after each move is applied.
	OnMove func(ply int, b *board.Board)
}

// Play runs a game from b until it is over, the side to move has no
// move, or MaxPlies is reached. The record is returned even on error.
func Play(ctx context.Context, eng *engine.Engine[*chess.Move], b *board.Board, opts Options) (*storage.GameRecord, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	rec := &storage.GameRecord{
		StartFEN:  b.FEN(),
		Depth:     opts.Depth,
		Evaluator: opts.Evaluator,
		StartedAt: time.Now(),
	}
	// The history holds only positions reached by moves played in this game
	h := eng.NewHistory()

	var err error
	for !b.IsTerminal() {
		if opts.MaxPlies > 0 && len(rec.Moves) >= opts.MaxPlies {
			break
		}
		m, ok, serr := eng.BestMove(ctx, b, opts.Depth, h)
		if serr != nil {
			err = fmt.Errorf("selfplay: ply %d: %w", len(rec.Moves)+1, serr)
			break
		}
		if !ok {
			break
		}

		b.Apply(m)
		h = h.Append(b.Encode())
		rec.Moves = append(rec.Moves, board.EncodeMove(m))

		fmt.Fprintln(out, b.String())
		fmt.Fprintln(out, separator)
		if opts.OnMove != nil {
			opts.OnMove(len(rec.Moves), b)
		}
	}

	rec.FinishedAt = time.Now()
	rec.FinalFEN = b.FEN()
	rec.Result = string(b.Outcome())
	rec.Method = b.Method().String()

	fmt.Fprintln(out, rec.Result)
	fmt.Fprintln(out, separator)
	fmt.Fprintf(out, "fen: %s\n", rec.FinalFEN)
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, b.String())
	fmt.Fprintln(out, separator)
	for _, m := range rec.Moves {
		fmt.Fprintln(out, m)
	}
	return rec, err
}
