// Package history tracks the rolling window of encoded positions fed to
// the evaluator.
package history

import "github.com/hailam/chessplay-minimax/internal/board"

// DefaultMaxMoves is the default window length.
const DefaultMaxMoves = 16

var zeroFrame = &board.Planes{}

// History is an ordered, bounded sequence of encoded positions, oldest
// first. It is a value: Append never modifies the receiver, so sibling
// search branches each see only their own lineage.
type History struct {
	frames []*board.Planes
	max    int
}

// New creates an empty history holding at most max frames.
func New(max int) History {
	if max <= 0 {
		max = 1
	}
	return History{max: max}
}

// Append returns a new history with frame added at the end, evicting the
// oldest frame when the window is full.
func (h History) Append(frame *board.Planes) History {
	max := h.Max()
	start := 0
	if len(h.frames)+1 > max {
		start = len(h.frames) + 1 - max
	}
	frames := make([]*board.Planes, 0, len(h.frames)-start+1)
	frames = append(frames, h.frames[start:]...)
	frames = append(frames, frame)
	return History{frames: frames, max: max}
}

// Len returns the number of real frames.
func (h History) Len() int {
	return len(h.frames)
}

// Max returns the window length.
func (h History) Max() int {
	if h.max <= 0 {
		return DefaultMaxMoves
	}
	return h.max
}

// Last returns the most recent frame, or nil when empty.
func (h History) Last() *board.Planes {
	if len(h.frames) == 0 {
		return nil
	}
	return h.frames[len(h.frames)-1]
}

// Frames returns a copy of the real frames, oldest first.
func (h History) Frames() []*board.Planes {
	return append([]*board.Planes(nil), h.frames...)
}

// Padded returns exactly Max frames: the real frames followed by zero
// frames.
func (h History) Padded() []*board.Planes {
	out := make([]*board.Planes, h.Max())
	n := copy(out, h.frames)
	for i := n; i < len(out); i++ {
		out[i] = zeroFrame
	}
	return out
}

// LastReal returns the last non-padding frame of a padded sequence.
func LastReal(frames []*board.Planes) *board.Planes {
	for i := len(frames) - 1; i >= 0; i-- {
		if !frames[i].IsZero() {
			return frames[i]
		}
	}
	return nil
}
