// Package render draws encoded positions as PNG images.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/hailam/chessplay-minimax/internal/board"
)

// Square colors
var (
	LightSquare = color.RGBA{240, 217, 181, 255}
	DarkSquare  = color.RGBA{181, 136, 99, 255}
)

// SVG board units per square
const unit = 100

// BoardSVG returns an SVG document for the frame: squares, then a disc
// per piece filled with the piece color.
func BoardSVG(f *board.Planes) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`,
		8*unit, 8*unit, 8*unit, 8*unit)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			c := LightSquare
			if (row+col)%2 == 1 {
				c = DarkSquare
			}
			fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
				col*unit, row*unit, unit, unit, hex(c))
		}
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := f.PieceAt(col, 7-row)
			if p == board.NoPiece {
				continue
			}
			fill, stroke := "#ffffff", "#000000"
			if p.Color() == board.Black {
				fill, stroke = "#202020", "#000000"
			}
			fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%d" fill="%s" stroke="%s" stroke-width="4"/>`,
				col*unit+unit/2, row*unit+unit/2, unit*38/100, fill, stroke)
		}
	}
	sb.WriteString(`</svg>`)
	return []byte(sb.String())
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Renderer rasterizes frames at a fixed size.
type Renderer struct {
	size    int
	glyph   font.Face
	label   font.Face
	squareP int
}

// NewRenderer creates a renderer producing size x size images.
func NewRenderer(size int) (*Renderer, error) {
	if size < 64 {
		return nil, fmt.Errorf("render: size %d too small", size)
	}
	sq := size / 8
	glyph, err := newFace(gobold.TTF, float64(sq)*0.45)
	if err != nil {
		return nil, err
	}
	label, err := newFace(goregular.TTF, float64(sq)*0.18)
	if err != nil {
		return nil, err
	}
	return &Renderer{size: size, glyph: glyph, label: label, squareP: sq}, nil
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("render: font face: %w", err)
	}
	return face, nil
}

// Render draws the frame.
func (r *Renderer) Render(f *board.Planes) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(BoardSVG(f)))
	if err != nil {
		return nil, fmt.Errorf("render: parse board svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(r.size), float64(r.size))

	rgba := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	scanner := rasterx.NewScannerGV(r.size, r.size, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(r.size, r.size, scanner)
	icon.Draw(raster, 1.0)

	r.drawGlyphs(rgba, f)
	r.drawLabels(rgba)
	return rgba, nil
}

// drawGlyphs writes the piece letter on each disc, in the contrasting color.
func (r *Renderer) drawGlyphs(dst *image.RGBA, f *board.Planes) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := f.PieceAt(col, 7-row)
			if p == board.NoPiece {
				continue
			}
			ink := color.Black
			if p.Color() == board.Black {
				ink = color.White
			}
			text := strings.ToUpper(p.String())
			r.drawCentered(dst, r.glyph, text, ink, col*r.squareP+r.squareP/2, row*r.squareP+r.squareP/2)
		}
	}
}

// drawLabels writes ranks down the a-file and files along the first rank.
func (r *Renderer) drawLabels(dst *image.RGBA) {
	pad := r.squareP / 16
	ascent := r.label.Metrics().Ascent.Ceil()
	for row := 0; row < 8; row++ {
		ink := labelInk(row, 0)
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(ink), Face: r.label}
		d.Dot = fixed.P(pad, row*r.squareP+pad+ascent)
		d.DrawString(fmt.Sprint(8 - row))
	}
	for col := 0; col < 8; col++ {
		ink := labelInk(7, col)
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(ink), Face: r.label}
		name := string(rune('a' + col))
		w := d.MeasureString(name).Ceil()
		d.Dot = fixed.P((col+1)*r.squareP-pad-w, r.size-pad)
		d.DrawString(name)
	}
}

func labelInk(row, col int) color.Color {
	if (row+col)%2 == 1 {
		return LightSquare
	}
	return DarkSquare
}

func (r *Renderer) drawCentered(dst *image.RGBA, face font.Face, s string, ink color.Color, cx, cy int) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(ink), Face: face}
	w := d.MeasureString(s).Ceil()
	m := face.Metrics()
	lift := (m.Ascent - m.Descent).Ceil() / 2
	d.Dot = fixed.P(cx-w/2, cy+lift)
	d.DrawString(s)
}

// WritePNG renders the frame and encodes it as PNG.
func (r *Renderer) WritePNG(w io.Writer, f *board.Planes) error {
	img, err := r.Render(f)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// SavePNG renders the frame to a file.
func (r *Renderer) SavePNG(path string, f *board.Planes) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	if err := r.WritePNG(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
