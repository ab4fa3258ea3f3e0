package eval

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Weight file format constants
const (
	MagicNumber = 0x4D4D5043 // "CPMM"
	Version     = 1
)

var ErrBadWeights = errors.New("eval: invalid weights file")

// FileHeader is the header of the weight file.
type FileHeader struct {
	Magic   uint32
	Version uint32
	Frames  uint32
	L1Size  uint32
	L2Size  uint32
}

// LoadNetwork reads a network from a weights file, taking the window
// length from its header.
func LoadNetwork(filename string) (*Network, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()
	return ReadNetwork(bufio.NewReader(f))
}

// ReadNetwork reads a network from r.
// Layout (little endian):
//   - Header: Magic, Version, Frames, L1Size, L2Size (uint32 each)
//   - L1Weights: Frames*FrameInputs * L1Size * int16
//   - L1Bias: L1Size * int16
//   - L2Weights: L1Size * L2Size * int8
//   - L2Bias: L2Size * int32
//   - OutputWeights: OutputSize * L2Size * int8
//   - OutputBias: OutputSize * int32
func ReadNetwork(r io.Reader) (*Network, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: magic %x, want %x", ErrBadWeights, header.Magic, MagicNumber)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrBadWeights, header.Version, Version)
	}
	if header.L1Size != L1Size || header.L2Size != L2Size {
		return nil, fmt.Errorf("%w: layer sizes %dx%d, want %dx%d",
			ErrBadWeights, header.L1Size, header.L2Size, L1Size, L2Size)
	}
	if header.Frames == 0 || header.Frames > 256 {
		return nil, fmt.Errorf("%w: frames %d", ErrBadWeights, header.Frames)
	}

	n := NewNetwork(int(header.Frames))
	fields := []struct {
		name string
		data any
	}{
		{"L1 weights", n.L1Weights},
		{"L1 bias", &n.L1Bias},
		{"L2 weights", &n.L2Weights},
		{"L2 bias", &n.L2Bias},
		{"output weights", &n.OutputWeights},
		{"output bias", &n.OutputBias},
	}
	for _, fd := range fields {
		if err := binary.Read(r, binary.LittleEndian, fd.data); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fd.name, err)
		}
	}
	return n, nil
}

// SaveWeights writes the network to a weights file.
func (n *Network) SaveWeights(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := n.WriteTo(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush weights: %w", err)
	}
	return f.Close()
}

// WriteTo writes the network in the weights file format.
func (n *Network) WriteTo(w io.Writer) error {
	header := FileHeader{
		Magic:   MagicNumber,
		Version: Version,
		Frames:  uint32(n.Frames),
		L1Size:  L1Size,
		L2Size:  L2Size,
	}
	fields := []struct {
		name string
		data any
	}{
		{"header", &header},
		{"L1 weights", n.L1Weights},
		{"L1 bias", &n.L1Bias},
		{"L2 weights", &n.L2Weights},
		{"L2 bias", &n.L2Bias},
		{"output weights", &n.OutputWeights},
		{"output bias", &n.OutputBias},
	}
	for _, fd := range fields {
		if err := binary.Write(w, binary.LittleEndian, fd.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", fd.name, err)
		}
	}
	return nil
}
