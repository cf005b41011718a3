package compose

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/font"

	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/fonts"
	"github.com/matzehuels/memeforge/pkg/layout"
	"github.com/matzehuels/memeforge/pkg/meme"
)

// ErrImageNotReady is returned when rendering is attempted without a
// decoded source image.
var ErrImageNotReady = errs.New(errs.ErrCodeImageNotReady, "source image is not decoded")

// FaceSource provides font faces. *fonts.Registry implements it.
type FaceSource interface {
	Face(family string, size float64) (font.Face, error)
}

// fontResolver is implemented by face sources that can report where a
// family's font file came from, such as *fonts.Registry.
type fontResolver interface {
	Resolve(family string) (fonts.Resolved, error)
}

// Engine renders captions. It is safe for concurrent use as long as its
// FaceSource is.
type Engine struct {
	faces FaceSource
}

// NewEngine creates an engine. A nil source uses fonts.Default().
func NewEngine(faces FaceSource) *Engine {
	if faces == nil {
		faces = fonts.Default()
	}
	return &Engine{faces: faces}
}

// FontSource returns the file path or builtin name family resolves to, or
// "" when the face source cannot tell.
func (e *Engine) FontSource(family string) string {
	r, ok := e.faces.(fontResolver)
	if !ok {
		return ""
	}
	res, err := r.Resolve(family)
	if err != nil {
		return ""
	}
	return res.Source
}

// Render draws top and bottom captions over a copy of src.
//
// Style values are used as given; ranges are not enforced here (see
// meme.Style.Validate).
func (e *Engine) Render(src image.Image, top, bottom string, style meme.Style) (*Surface, error) {
	s, err := NewSurface(src)
	if err != nil {
		return nil, err
	}
	if err := e.Draw(s, top, bottom, style); err != nil {
		return nil, err
	}
	return s, nil
}

// Draw lays out and draws both captions onto s.
func (e *Engine) Draw(s *Surface, top, bottom string, style meme.Style) error {
	if s == nil {
		return ErrImageNotReady
	}
	fill, err := meme.ParseColor(style.FillColor)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	stroke, err := meme.ParseColor(style.StrokeColor)
	if err != nil {
		return fmt.Errorf("stroke: %w", err)
	}
	face, err := e.faces.Face(style.FontFamily, float64(style.FontSize))
	if err != nil {
		return err
	}
	defer face.Close()

	dc := s.dc
	dc.SetFontFace(face)

	l := layout.Compute(s.Width(), s.Height(), top, bottom, style.FontSize, dc)
	ascent := float64(face.Metrics().Ascent.Ceil())
	offsets := strokeOffsets(style.StrokeWidth)

	for _, line := range l.Lines() {
		baseline := line.Y + ascent

		dc.SetColor(stroke)
		for _, o := range offsets {
			dc.DrawStringAnchored(line.Text, line.X+o.X, baseline+o.Y, 0.5, 0)
		}

		dc.SetColor(fill)
		dc.DrawStringAnchored(line.Text, line.X, baseline, 0.5, 0)
	}

	s.layout = l
	return nil
}

type offset struct{ X, Y float64 }

// strokeOffsets returns the integer offsets inside a disc whose radius is
// half the stroke width, rounded up. Drawing the text at each offset
// approximates an outline centred on the glyph edge.
func strokeOffsets(width int) []offset {
	if width <= 0 {
		return nil
	}
	r := int(math.Ceil(float64(width) / 2))
	var out []offset
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if dx*dx+dy*dy <= r*r {
				out = append(out, offset{float64(dx), float64(dy)})
			}
		}
	}
	return out
}
