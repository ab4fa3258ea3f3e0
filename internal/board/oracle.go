package board

import "github.com/notnil/chess"

// Oracle is the rules contract the search engine is written against.
// Apply and Undo must be exact inverses, and LegalMoves must be
// deterministic and complete for any non-terminal position.
type Oracle[M any] interface {
	LegalMoves() []M
	Apply(m M)
	Undo()
	IsTerminal() bool
	SideToMove() Color
	PositionKey() string
	Encode() *Planes
	// Fork returns an independent oracle at the same game state.
	Fork() Oracle[M]
}

// Fork implements Oracle.
func (b *Board) Fork() Oracle[*chess.Move] {
	return b.Clone()
}

var _ Oracle[*chess.Move] = (*Board)(nil)
