// Package eval provides position evaluators: a classical material
// evaluator and a small quantized network over the position history.
package eval

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/hailam/chessplay-minimax/internal/board"
)

// Evaluator kinds accepted by New.
const (
	KindMaterial = "material"
	KindNetwork  = "network"
)

// Evaluator scores a padded history for a color, in [-1, 1].
type Evaluator interface {
	Evaluate(frames []*board.Planes, c board.Color) (float64, error)
}

// RandomSeed seeds the network when no weights file is configured.
const RandomSeed = 12345

// New builds the evaluator selected by kind. A network without a weights
// file uses deterministic random weights (for testing only).
func New(kind, weightsPath string, frames int) (Evaluator, error) {
	switch strings.ToLower(kind) {
	case "", KindMaterial:
		return NewMaterial(), nil
	case KindNetwork:
		if weightsPath == "" {
			n := NewNetwork(frames)
			n.InitRandom(RandomSeed)
			return n, nil
		}
		n, err := LoadNetwork(weightsPath)
		if err != nil {
			return nil, err
		}
		if n.Frames != frames {
			return nil, fmt.Errorf("%w: weights expect %d frames, history holds %d", ErrFrameCount, n.Frames, frames)
		}
		return n, nil
	}
	return nil, fmt.Errorf("eval: unknown evaluator %q", kind)
}

// Fingerprint identifies the scoring function of e. Two evaluators with
// the same fingerprint score every history identically.
func Fingerprint(e Evaluator) string {
	switch v := e.(type) {
	case *Material:
		return fmt.Sprintf("%s/%g", KindMaterial, v.Scale)
	case *Network:
		d := xxhash.New()
		_ = v.WriteTo(d) // Digest.Write never fails
		return fmt.Sprintf("%s/%d/%016x", KindNetwork, v.Frames, d.Sum64())
	}
	return fmt.Sprintf("%T", e)
}
