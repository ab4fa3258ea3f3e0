package eval

import (
	"math"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/history"
)

// DefaultScale maps centipawns onto (-1, 1) through tanh(cp/scale).
const DefaultScale = 600

// Piece-Square Tables (PST) for positional evaluation
// Rows run from rank 8 down to rank 1, from White's perspective; mirrored for Black

// Pawn PST - encourages central control and advancement
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// Knight PST - encourages central positioning
var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

// Rook PST - encourages 7th rank
var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// King PST (middlegame) - encourages castling
var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

// King PST (endgame) - king should be active
var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var psts = [...][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST,
}

// Phase weights per piece type; 24 is a full middlegame.
var phaseWeight = [...]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24

// Material is a classical evaluator: material plus piece-square tables,
// tapered between middlegame and endgame king tables. Only the newest
// real frame is read.
type Material struct {
	Scale float64
}

// NewMaterial returns a Material evaluator with DefaultScale.
func NewMaterial() *Material {
	return &Material{Scale: DefaultScale}
}

// Evaluate implements Evaluator.
func (m *Material) Evaluate(frames []*board.Planes, c board.Color) (float64, error) {
	f := history.LastReal(frames)
	if f == nil {
		return 0, nil
	}
	cp := Centipawns(f)
	if c == board.Black {
		cp = -cp
	}
	scale := m.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	return math.Tanh(float64(cp) / scale), nil
}

// Centipawns returns the static score of a frame from White's perspective.
func Centipawns(f *board.Planes) int {
	var mg, eg, phase int
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := f.PieceAt(col, 7-row)
			if p == board.NoPiece {
				continue
			}
			pt, sign, idx := p.Type(), 1, row*8+col
			if p.Color() == board.Black {
				sign, idx = -1, (7-row)*8+col
			}

			if pt == board.King {
				mg += sign * kingMidgamePST[idx]
				eg += sign * kingEndgamePST[idx]
				continue
			}
			v := board.PieceValue[pt] + psts[pt][idx]
			mg += sign * v
			eg += sign * v
			phase += phaseWeight[pt]
		}
	}
	if phase > maxPhase {
		phase = maxPhase
	}
	return (mg*phase + eg*(maxPhase-phase)) / maxPhase
}
