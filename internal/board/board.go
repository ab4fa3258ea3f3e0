// Package board is the rules oracle used by the search engine. It wraps
// github.com/notnil/chess positions in an apply/undo stack.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("board: invalid FEN")
	ErrIllegalMove = errors.New("board: illegal move")
)

// Board is a mutable game state. Every Apply pushes the resulting
// position, Undo pops it, so apply/undo pairs restore the exact prior
// state including repetition bookkeeping.
type Board struct {
	stack []*chess.Position
	moves []*chess.Move
	keys  []string // repetition keys, parallel to stack
}

// NewBoard creates a board at the starting position.
func NewBoard() *Board {
	b, _ := ParseFEN(StartFEN)
	return b
}

// ParseFEN creates a board from a FEN string.
func ParseFEN(fen string) (*Board, error) {
	pos, err := decodeFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Board{
		stack: []*chess.Position{pos},
		keys:  []string{repetitionKey(pos)},
	}, nil
}

func decodeFEN(fen string) (*chess.Position, error) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(strings.TrimSpace(fen))); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFEN, fen, err)
	}
	return pos, nil
}

// Position returns the current notnil/chess position.
func (b *Board) Position() *chess.Position {
	return b.stack[len(b.stack)-1]
}

// LegalMoves returns the legal moves in generation order.
func (b *Board) LegalMoves() []*chess.Move {
	return b.Position().ValidMoves()
}

// Apply plays a move on the board.
func (b *Board) Apply(m *chess.Move) {
	next := b.Position().Update(m)
	b.stack = append(b.stack, next)
	b.moves = append(b.moves, m)
	b.keys = append(b.keys, repetitionKey(next))
}

// Undo reverts the last Apply. Undoing past the initial position is a
// caller bug and panics.
func (b *Board) Undo() {
	if len(b.moves) == 0 {
		panic("board: undo without a matching apply")
	}
	n := len(b.stack) - 1
	b.stack = b.stack[:n]
	b.keys = b.keys[:n]
	b.moves = b.moves[:len(b.moves)-1]
}

// SideToMove returns the color to move.
func (b *Board) SideToMove() Color {
	return fromChessColor(b.Position().Turn())
}

// PositionKey returns the canonical identity of the current position (its FEN).
func (b *Board) PositionKey() string {
	return b.Position().String()
}

// FEN returns the FEN of the current position.
func (b *Board) FEN() string {
	return b.Position().String()
}

// Encode returns the plane encoding of the current position.
func (b *Board) Encode() *Planes {
	return EncodePosition(b.Position())
}

// Clone returns an independent board with the same game. Positions are
// re-decoded so no lazily cached state is shared between clones.
func (b *Board) Clone() *Board {
	c := &Board{
		stack: make([]*chess.Position, len(b.stack)),
		moves: append([]*chess.Move(nil), b.moves...),
		keys:  append([]string(nil), b.keys...),
	}
	for i, pos := range b.stack {
		cp, err := decodeFEN(pos.String())
		if err != nil {
			panic(fmt.Sprintf("board: clone: %v", err))
		}
		c.stack[i] = cp
	}
	return c
}

// MoveStack returns the moves applied since the initial position.
func (b *Board) MoveStack() []*chess.Move {
	return append([]*chess.Move(nil), b.moves...)
}

// Ply returns the number of moves applied since the initial position.
func (b *Board) Ply() int {
	return len(b.moves)
}

// PieceAt returns the piece on (file, rank).
func (b *Board) PieceAt(file, rank int) Piece {
	sq := chess.Square(rank*8 + file)
	return fromChessPiece(b.Position().Board().Piece(sq))
}

// ParseMove finds the legal move with the given UCI text (e.g. "e2e4", "e7e8q").
func (b *Board) ParseMove(s string) (*chess.Move, error) {
	return findMove(b.Position(), s)
}

// String returns a visual representation of the position.
func (b *Board) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			if file > 0 {
				sb.WriteByte(' ')
			}
			piece := b.PieceAt(file, rank)
			if piece == NoPiece {
				sb.WriteByte('.')
			} else {
				sb.WriteString(piece.String())
			}
		}
		if rank > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// EncodeMove returns the UCI text of a move.
func EncodeMove(m *chess.Move) string {
	return m.String()
}

// DecodeMove resolves UCI move text against the position with the given FEN.
func DecodeMove(fen, s string) (*chess.Move, error) {
	pos, err := decodeFEN(fen)
	if err != nil {
		return nil, err
	}
	return findMove(pos, s)
}

func findMove(pos *chess.Position, s string) (*chess.Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range pos.ValidMoves() {
		if m.String() == s {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrIllegalMove, s, pos.String())
}

// MoveCodec converts moves to and from UCI text, for persisting move
// lists keyed by position.
type MoveCodec struct{}

// EncodeMove implements storage.MoveCodec.
func (MoveCodec) EncodeMove(m *chess.Move) string { return EncodeMove(m) }

// DecodeMove implements storage.MoveCodec.
func (MoveCodec) DecodeMove(fen, s string) (*chess.Move, error) { return DecodeMove(fen, s) }
