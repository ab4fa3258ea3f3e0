package uci

import (
	"bytes"
	"strings"
	"testing"

	"github.com/notnil/chess"
	"go.uber.org/zap/zaptest"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/engine"
	"github.com/hailam/chessplay-minimax/internal/eval"
)

func run(t *testing.T, script string) []string {
	t.Helper()
	eng, err := engine.New[*chess.Move](eval.NewMaterial())
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	var out bytes.Buffer
	u := New(eng, 2, strings.NewReader(script), &out, zaptest.NewLogger(t).Sugar())
	u.Run()
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func find(lines []string, prefix string) string {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return l
		}
	}
	return ""
}

func TestHandshake(t *testing.T) {
	lines := run(t, "uci\nisready\nquit\n")
	if find(lines, "uciok") == "" || find(lines, "readyok") == "" {
		t.Errorf("Missing handshake replies: %v", lines)
	}
	if find(lines, "option name Depth") == "" {
		t.Error("Depth option not advertised")
	}
}

func TestGoReturnsLegalMove(t *testing.T) {
	lines := run(t, "position startpos moves e2e4 e7e5\ngo depth 2\nquit\n")

	best := find(lines, "bestmove ")
	if best == "" {
		t.Fatalf("No bestmove in output: %v", lines)
	}
	move := strings.TrimPrefix(best, "bestmove ")

	b := board.NewBoard()
	for _, s := range []string{"e2e4", "e7e5"} {
		m, _ := b.ParseMove(s)
		b.Apply(m)
	}
	if _, err := b.ParseMove(move); err != nil {
		t.Errorf("bestmove %s is not legal: %v", move, err)
	}
	if find(lines, "info depth 2 currmove") == "" {
		t.Error("Expected progress info lines")
	}
}

func TestGoFromMatedPosition(t *testing.T) {
	lines := run(t, "position fen R6k/6pp/8/8/8/8/8/K7 b - - 0 1\ngo\nquit\n")
	if find(lines, "bestmove 0000") == "" {
		t.Errorf("Expected null move, got %v", lines)
	}
}

func TestInvalidInput(t *testing.T) {
	lines := run(t, "position fen not-a-fen\nposition startpos moves e2e5\nquit\n")
	if find(lines, "info string Invalid FEN") == "" {
		t.Error("Invalid FEN not reported")
	}
	if find(lines, "info string Invalid move: e2e5") == "" {
		t.Error("Invalid move not reported")
	}
}

func TestSetOptionDepth(t *testing.T) {
	lines := run(t, "setoption name Depth value 99\nuci\nquit\n")
	if find(lines, "option name Depth type spin default 8") == "" {
		t.Errorf("Depth should be clamped to 8: %v", lines)
	}
}

func TestPerft(t *testing.T) {
	tests := []struct {
		depth int
		want  uint64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
	}
	for _, tt := range tests {
		if got := Perft(board.NewBoard(), tt.depth); got != tt.want {
			t.Errorf("Perft(%d) = %d, want %d", tt.depth, got, tt.want)
		}
	}

	lines := run(t, "perft 2\nquit\n")
	if find(lines, "Nodes searched: 400") == "" {
		t.Errorf("Unexpected perft output: %v", lines)
	}
}

func TestStopReturnsLegalMove(t *testing.T) {
	lines := run(t, "position startpos\ngo depth 3\nstop\nquit\n")

	best := find(lines, "bestmove ")
	move := strings.TrimPrefix(best, "bestmove ")
	if best == "" || move == "0000" {
		t.Fatalf("Expected a real move after stop, got %q", best)
	}
	if _, err := board.NewBoard().ParseMove(move); err != nil {
		t.Errorf("bestmove %s is not legal: %v", move, err)
	}
	if find(lines, "info string search failed") != "" {
		t.Error("Stopping a search should not be reported as a failure")
	}
}

func TestOrFirstLegal(t *testing.T) {
	if got := orFirstLegal(board.NewBoard(), "e2e4"); got != "e2e4" {
		t.Errorf("Expected the scored move, got %s", got)
	}
	first := board.EncodeMove(board.NewBoard().LegalMoves()[0])
	if got := orFirstLegal(board.NewBoard(), ""); got != first {
		t.Errorf("Expected first legal move %s, got %s", first, got)
	}
	mated, err := board.ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if got := orFirstLegal(mated, ""); got != "0000" {
		t.Errorf("Expected 0000 without legal moves, got %s", got)
	}
}
