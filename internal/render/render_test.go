package render

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/chessplay-minimax/internal/board"
)

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -2 && d <= 2
}

func sameColor(got color.Color, want color.RGBA) bool {
	r, g, b, a := got.RGBA()
	return near(uint8(r>>8), want.R) && near(uint8(g>>8), want.G) &&
		near(uint8(b>>8), want.B) && near(uint8(a>>8), want.A)
}

func TestBoardSVG(t *testing.T) {
	svg := string(BoardSVG(board.NewBoard().Encode()))
	if got := strings.Count(svg, "<rect"); got != 64 {
		t.Errorf("Expected 64 squares, got %d", got)
	}
	if got := strings.Count(svg, "<circle"); got != 32 {
		t.Errorf("Expected 32 pieces, got %d", got)
	}
}

func TestRenderSquares(t *testing.T) {
	r, err := NewRenderer(256)
	if err != nil {
		t.Fatal(err)
	}
	img, err := r.Render(board.NewBoard().Encode())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 256 || img.Bounds().Dy() != 256 {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}

	// Corners away from labels and discs: a1 is dark, h1 light, e4 light
	if c := img.At(3, 253); !sameColor(c, DarkSquare) {
		t.Errorf("a1 corner = %v, want dark square", c)
	}
	if c := img.At(252, 224+3); !sameColor(c, LightSquare) {
		t.Errorf("h1 corner = %v, want light square", c)
	}
	if c := img.At(4*32+2, 4*32+30); !sameColor(c, LightSquare) {
		t.Errorf("e4 corner = %v, want light square", c)
	}
}

func TestSavePNG(t *testing.T) {
	r, err := NewRenderer(128)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "board.png")
	if err := r.SavePNG(path, board.NewBoard().Encode()); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	var buf bytes.Buffer
	if err := r.WritePNG(&buf, &board.Planes{}); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("Expected width 128, got %d", img.Bounds().Dx())
	}
}

func TestRendererRejectsTinySize(t *testing.T) {
	if _, err := NewRenderer(16); err == nil {
		t.Error("Expected error for a tiny board")
	}
}
