package eval

import (
	"errors"
	"fmt"
	"math"

	"github.com/hailam/chessplay-minimax/internal/board"
)

// Network architecture constants
const (
	// One input per (square, plane) of a frame
	FrameInputs = 8 * 8 * board.NumPlanes // 768

	L1Size     = 64
	L2Size     = 32
	OutputSize = 2 // White head, Black head

	// Quantization constants
	L1QuantShift = 6  // L1 output scaled by 2^6
	OutputShift  = 10 // Output scaled by 2^10 before tanh
)

var ErrFrameCount = errors.New("eval: frame count does not match network")

// ClampedReLU clamps value to [0, 127] for quantized inference.
func ClampedReLU(x int32) int8 {
	if x < 0 {
		return 0
	}
	if x > 127 {
		return 127
	}
	return int8(x)
}

// Network is a quantized feed-forward evaluator over a window of frames.
// It predicts one score per color; Evaluate returns the head for the
// requested color. Weights are read-only after loading, so a Network is
// safe for concurrent use.
type Network struct {
	Frames int

	// Layer 1: Frames*FrameInputs -> L1Size
	L1Weights [][L1Size]int16
	L1Bias    [L1Size]int16

	// Layer 2: L1Size -> L2Size
	L2Weights [L1Size][L2Size]int8
	L2Bias    [L2Size]int32

	// Output layer: L2Size -> OutputSize
	OutputWeights [OutputSize][L2Size]int8
	OutputBias    [OutputSize]int32
}

// NewNetwork creates a network with zero weights for the given window.
func NewNetwork(frames int) *Network {
	if frames <= 0 {
		frames = 1
	}
	return &Network{
		Frames:    frames,
		L1Weights: make([][L1Size]int16, frames*FrameInputs),
	}
}

// InputIndex returns the input feature index of a plane cell.
func InputIndex(frame, row, col, plane int) int {
	return frame*FrameInputs + (row*8+col)*board.NumPlanes + plane
}

// Forward returns the raw quantized outputs.
func (n *Network) Forward(frames []*board.Planes) ([OutputSize]int32, error) {
	var out [OutputSize]int32
	if len(frames) != n.Frames {
		return out, fmt.Errorf("%w: got %d, want %d", ErrFrameCount, len(frames), n.Frames)
	}

	// Layer 1: inputs are one-hot, so only active cells contribute
	var acc [L1Size]int32
	for i := range acc {
		acc[i] = int32(n.L1Bias[i])
	}
	for f, fr := range frames {
		if fr.IsZero() {
			continue
		}
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				for p := 0; p < board.NumPlanes; p++ {
					if fr[row][col][p] == 0 {
						continue
					}
					w := &n.L1Weights[InputIndex(f, row, col, p)]
					for i := range acc {
						acc[i] += int32(w[i])
					}
				}
			}
		}
	}
	var l1Out [L1Size]int8
	for i := range acc {
		l1Out[i] = ClampedReLU(acc[i])
	}

	// Layer 2: matrix multiply + bias + clipped ReLU
	var l2Out [L2Size]int8
	for i := 0; i < L2Size; i++ {
		sum := n.L2Bias[i]
		for j := 0; j < L1Size; j++ {
			sum += int32(l1Out[j]) * int32(n.L2Weights[j][i])
		}
		l2Out[i] = ClampedReLU(sum >> L1QuantShift)
	}

	for h := 0; h < OutputSize; h++ {
		sum := n.OutputBias[h]
		for i := 0; i < L2Size; i++ {
			sum += int32(l2Out[i]) * int32(n.OutputWeights[h][i])
		}
		out[h] = sum
	}
	return out, nil
}

// Evaluate implements Evaluator.
func (n *Network) Evaluate(frames []*board.Planes, c board.Color) (float64, error) {
	out, err := n.Forward(frames)
	if err != nil {
		return 0, err
	}
	head := 0
	if c == board.Black {
		head = 1
	}
	v := math.Tanh(float64(out[head]) / (1 << OutputShift))
	return math.Max(-1, math.Min(1, v)), nil
}

// InitRandom initializes weights with small random values (for testing only).
func (n *Network) InitRandom(seed int64) {
	// Use a simple LCG for reproducibility
	state := uint64(seed)
	next := func() int16 {
		state = state*6364136223846793005 + 1442695040888963407
		return int16((state>>48)&0xFF) - 128 // -128 to 127
	}

	for i := range n.L1Weights {
		for j := 0; j < L1Size; j++ {
			n.L1Weights[i][j] = next() >> 3 // -16 to 15
		}
	}
	for i := 0; i < L1Size; i++ {
		n.L1Bias[i] = next() >> 3
	}
	for i := 0; i < L1Size; i++ {
		for j := 0; j < L2Size; j++ {
			n.L2Weights[i][j] = int8(next() >> 2)
		}
	}
	for i := 0; i < L2Size; i++ {
		n.L2Bias[i] = int32(next())
	}
	for h := 0; h < OutputSize; h++ {
		for i := 0; i < L2Size; i++ {
			n.OutputWeights[h][i] = int8(next() >> 2)
		}
		n.OutputBias[h] = int32(next()) * 4
	}
}
