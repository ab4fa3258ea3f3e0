// Package engine implements the minimax search with alpha-beta pruning,
// the legal-move cache and the transposition table.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hailam/chessplay-minimax/internal/board"
)

var (
	ErrMalformedScore      = errors.New("engine: evaluator returned a malformed score")
	ErrSnapshotUnsupported = errors.New("engine: bounded caches cannot be snapshotted")
	ErrInvalidKey          = errors.New("engine: invalid search key")
)

// Score is an evaluation in [-1, 1].
type Score = float64

// Search bounds.
var (
	Infinity    = math.Inf(1)
	NegInfinity = math.Inf(-1)
)

// Clamp limits a score to [-1, 1].
func Clamp(s Score) Score {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// Position is the canonical identity of a board state.
type Position string

// SearchKey identifies a search call. Alpha and beta are part of the key
// because a pruned result is only valid for the bounds it was computed
// under; entries are reused only when the exact bounds recur.
type SearchKey struct {
	Position   Position
	Depth      int
	Alpha      Score
	Beta       Score
	Maximizing bool
}

// String returns a stable text form, used as the store key.
func (k SearchKey) String() string {
	return strconv.Itoa(k.Depth) + "|" +
		strconv.FormatFloat(k.Alpha, 'g', -1, 64) + "|" +
		strconv.FormatFloat(k.Beta, 'g', -1, 64) + "|" +
		strconv.FormatBool(k.Maximizing) + "|" +
		string(k.Position)
}

// ParseSearchKey is the inverse of SearchKey.String.
func ParseSearchKey(s string) (SearchKey, error) {
	parts := strings.SplitN(s, "|", 5)
	if len(parts) != 5 {
		return SearchKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	depth, err := strconv.Atoi(parts[0])
	if err != nil {
		return SearchKey{}, fmt.Errorf("%w: depth: %v", ErrInvalidKey, err)
	}
	alpha, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return SearchKey{}, fmt.Errorf("%w: alpha: %v", ErrInvalidKey, err)
	}
	beta, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return SearchKey{}, fmt.Errorf("%w: beta: %v", ErrInvalidKey, err)
	}
	maximizing, err := strconv.ParseBool(parts[3])
	if err != nil {
		return SearchKey{}, fmt.Errorf("%w: maximizing: %v", ErrInvalidKey, err)
	}
	return SearchKey{
		Position:   Position(parts[4]),
		Depth:      depth,
		Alpha:      alpha,
		Beta:       beta,
		Maximizing: maximizing,
	}, nil
}

// Evaluator scores a position from its history. frames always has the
// engine's history length, real positions first and zero frames after.
// Implementations must be pure and safe for concurrent use.
type Evaluator interface {
	Evaluate(frames []*board.Planes, c board.Color) (float64, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(frames []*board.Planes, c board.Color) (float64, error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(frames []*board.Planes, c board.Color) (float64, error) {
	return f(frames, c)
}

// Perspective selects which color leaf positions are evaluated for.
type Perspective uint8

const (
	// PerspectiveSideToMove evaluates for the side to move at the leaf.
	PerspectiveSideToMove Perspective = iota
	// PerspectiveMaximizer evaluates for the color the maximizing player controls.
	PerspectiveMaximizer
)

// String returns the config name of the perspective.
func (p Perspective) String() string {
	if p == PerspectiveMaximizer {
		return "maximizer"
	}
	return "side_to_move"
}

// ParsePerspective parses a config name.
func ParsePerspective(s string) (Perspective, error) {
	switch strings.ToLower(s) {
	case "", "side_to_move":
		return PerspectiveSideToMove, nil
	case "maximizer":
		return PerspectiveMaximizer, nil
	}
	return 0, fmt.Errorf("engine: unknown perspective %q", s)
}
