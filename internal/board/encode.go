package board

import "github.com/notnil/chess"

// NumPlanes is the number of piece planes in an encoded position.
const NumPlanes = 12

// Planes is the one-hot encoding of a board: [row][column][plane].
// Row 0 is rank 8 and column 0 is file a. Planes 0-5 hold white
// P N B R Q K, planes 6-11 black p n b r q k. Frames are never
// mutated after encoding, so they are shared between histories.
type Planes [8][8][NumPlanes]float32

// PlaneIndex returns the (row, column) of a square in the encoding.
func PlaneIndex(file, rank int) (row, col int) {
	return 7 - rank, file
}

// PieceAt returns the piece encoded on (file, rank), or NoPiece.
func (p *Planes) PieceAt(file, rank int) Piece {
	row, col := PlaneIndex(file, rank)
	for i := 0; i < NumPlanes; i++ {
		if p[row][col][i] != 0 {
			return Piece(i)
		}
	}
	return NoPiece
}

// IsZero reports whether the frame is a padding frame.
func (p *Planes) IsZero() bool {
	return p == nil || *p == Planes{}
}

// EncodePosition builds the plane encoding of a notnil/chess position.
func EncodePosition(pos *chess.Position) *Planes {
	var planes Planes
	for sq, pc := range pos.Board().SquareMap() {
		piece := fromChessPiece(pc)
		if piece == NoPiece {
			continue
		}
		row, col := PlaneIndex(int(sq.File()), int(sq.Rank()))
		planes[row][col][piece] = 1
	}
	return &planes
}
