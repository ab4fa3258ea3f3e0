package board

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Result is a PGN game result.
type Result string

const (
	WhiteWins  Result = "1-0"
	BlackWins  Result = "0-1"
	DrawResult Result = "1/2-1/2"
	NoResult   Result = "*"
)

// Automatic draw thresholds (no claim needed).
const (
	seventyFiveMoveHalfMoves = 150
	fivefoldRepetitions      = 5
)

// Method returns how the game ended, chess.NoMethod if it has not.
func (b *Board) Method() chess.Method {
	pos := b.Position()
	if status := pos.Status(); status != chess.NoMethod {
		return status
	}
	if insufficientMaterial(pos.Board()) {
		return chess.InsufficientMaterial
	}
	if halfMoveClock(pos) >= seventyFiveMoveHalfMoves {
		return chess.SeventyFiveMoveRule
	}
	if b.repetitions() >= fivefoldRepetitions {
		return chess.FivefoldRepetition
	}
	return chess.NoMethod
}

// IsTerminal reports whether the game is over: checkmate, stalemate,
// insufficient material, the seventy-five-move rule or fivefold repetition.
func (b *Board) IsTerminal() bool {
	return b.Method() != chess.NoMethod
}

// Outcome returns the game result.
func (b *Board) Outcome() Result {
	switch b.Method() {
	case chess.NoMethod:
		return NoResult
	case chess.Checkmate:
		if b.SideToMove() == White {
			return BlackWins
		}
		return WhiteWins
	default:
		return DrawResult
	}
}

// repetitions counts how often the current position occurred in this game.
func (b *Board) repetitions() int {
	current := b.keys[len(b.keys)-1]
	n := 0
	for _, k := range b.keys {
		if k == current {
			n++
		}
	}
	return n
}

// repetitionKey is the FEN without the move counters.
func repetitionKey(pos *chess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

func halfMoveClock(pos *chess.Position) int {
	fields := strings.Fields(pos.String())
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}

// insufficientMaterial reports the dead positions: K v K, K+minor v K,
// and bishops-only endings with all bishops on one square color.
func insufficientMaterial(bd *chess.Board) bool {
	var knights, bishops int
	bishopColors := [2]int{}
	for sq, pc := range bd.SquareMap() {
		switch pc.Type() {
		case chess.King:
		case chess.Knight:
			knights++
		case chess.Bishop:
			bishops++
			bishopColors[(int(sq.File())+int(sq.Rank()))%2]++
		default:
			return false
		}
	}
	switch {
	case knights == 0 && bishops == 0:
		return true
	case knights+bishops == 1:
		return true
	case knights == 0 && (bishopColors[0] == 0 || bishopColors[1] == 0):
		return true
	}
	return false
}
