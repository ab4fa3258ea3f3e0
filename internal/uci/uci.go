// Package uci exposes the engine over the Universal Chess Interface.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/engine"
	"github.com/hailam/chessplay-minimax/internal/history"
)

const (
	minDepth = 1
	maxDepth = 8
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine[*chess.Move]
	board  *board.Board
	hist   history.History
	depth  int

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // guards out
	log *zap.SugaredLogger

	// Search state
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a UCI protocol handler searching to depth by default.
func New(eng *engine.Engine[*chess.Move], depth int, in io.Reader, out io.Writer, log *zap.SugaredLogger) *UCI {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	u := &UCI{
		engine: eng,
		depth:  clampDepth(depth),
		in:     in,
		out:    out,
		log:    log.Named("uci"),
	}
	u.reset(board.NewBoard())
	return u
}

func clampDepth(d int) int {
	return max(minDepth, min(maxDepth, d))
}

func (u *UCI) reset(b *board.Board) {
	u.board = b
	u.hist = u.engine.NewHistory()
}

func (u *UCI) println(a ...any) {
	u.mu.Lock()
	fmt.Fprintln(u.out, a...)
	u.mu.Unlock()
}

func (u *UCI) printf(format string, a ...any) {
	u.mu.Lock()
	fmt.Fprintf(u.out, format, a...)
	u.mu.Unlock()
}

// Run reads commands until quit or end of input. A running search is
// allowed to finish before Run returns.
func (u *UCI) Run() {
	defer u.wg.Wait()

	scanner := bufio.NewScanner(u.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.wg.Wait()
			u.println("readyok")
		case "ucinewgame":
			u.wg.Wait()
			u.engine.Clear()
			u.reset(board.NewBoard())
		case "position":
			u.wg.Wait()
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			return
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.println(u.board.String())
			u.println("Fen:", u.board.FEN())
		case "perft":
			u.handlePerft(args)
		default:
			u.log.Debugw("unknown command", "cmd", cmd)
		}
	}
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name ChessPlay Minimax")
	u.println("id author ChessPlay Team")
	u.println()
	u.printf("option name Depth type spin default %d min %d max %d\n", u.depth, minDepth, maxDepth)
	u.println("option name Clear Hash type button")
	u.println("uciok")
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var b *board.Board
	switch args[0] {
	case "startpos":
		b = board.NewBoard()
	case "fen":
		var err error
		b, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.printf("info string Invalid FEN: %v\n", err)
			return
		}
	default:
		return
	}
	u.reset(b)

	if movesAt >= len(args) {
		return
	}
	for _, s := range args[movesAt+1:] {
		m, err := u.board.ParseMove(s)
		if err != nil {
			u.printf("info string Invalid move: %s\n", s)
			return
		}
		u.board.Apply(m)
		u.hist = u.hist.Append(u.board.Encode())
	}
}

// handleGo starts a search. Only "depth" is honored; clock options are
// accepted and ignored.
func (u *UCI) handleGo(args []string) {
	u.wg.Wait()

	depth := u.depth
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "depth" {
			if d, err := strconv.Atoi(args[i+1]); err == nil {
				depth = clampDepth(d)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel

	// The search runs on a fork so "d" and "position" never race with it
	b := u.board.Clone()
	h := u.hist
	maximizing := b.SideToMove() == board.White

	// Best root move scored so far, reported if the search is stopped
	var (
		fallback      string
		fallbackScore engine.Score
	)
	u.engine.SetProgress(func(p engine.Progress) {
		u.printf("info depth %d currmove %s currmovenumber %d score cp %d time %d\n",
			depth, p.Move, p.Done, scoreToCP(p.Score), p.Elapsed.Milliseconds())
		if fallback == "" || maximizing && p.Score > fallbackScore || !maximizing && p.Score < fallbackScore {
			fallback, fallbackScore = p.Move, p.Score
		}
	})

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		defer cancel()

		m, ok, err := u.engine.BestMove(ctx, b, depth, h)
		switch {
		case err != nil:
			if !errors.Is(err, context.Canceled) {
				u.log.Errorw("search failed", zap.Error(err))
				u.printf("info string search failed: %v\n", err)
			}
			u.printf("bestmove %s\n", orFirstLegal(b, fallback))
		case !ok:
			u.println("bestmove 0000")
		default:
			u.printf("bestmove %s\n", board.EncodeMove(m))
		}
	}()
}

// orFirstLegal returns move, or the first legal move of b when move is
// empty. "0000" is only returned when b has no legal moves.
func orFirstLegal(b *board.Board, move string) string {
	if move != "" {
		return move
	}
	if moves := b.LegalMoves(); len(moves) > 0 {
		return board.EncodeMove(moves[0])
	}
	return "0000"
}

// scoreToCP maps a [-1, 1] score onto a centipawn-like scale for GUIs.
func scoreToCP(s engine.Score) int {
	return int(math.Round(s * 1000))
}

// handleStop cancels the running search between root moves.
func (u *UCI) handleStop() {
	if u.cancel != nil {
		u.cancel()
	}
}

// handleSetOption handles "setoption name <id> [value <x>]".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	target := &name
	for _, a := range args {
		switch a {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, a)
		}
	}

	switch strings.ToLower(strings.Join(name, " ")) {
	case "depth":
		d, err := strconv.Atoi(strings.Join(value, ""))
		if err != nil {
			u.printf("info string Invalid depth: %s\n", strings.Join(value, " "))
			return
		}
		u.depth = clampDepth(d)
	case "clear hash":
		u.wg.Wait()
		u.engine.Clear()
	}
}

// handlePerft counts leaf nodes of the legal move tree.
func (u *UCI) handlePerft(args []string) {
	depth := 1
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}
	u.printf("Nodes searched: %d\n", Perft(u.board, depth))
}

// Perft counts the leaf nodes of the legal move tree to depth.
func Perft(b *board.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := b.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		b.Apply(m)
		nodes += Perft(b, depth-1)
		b.Undo()
	}
	return nodes
}
