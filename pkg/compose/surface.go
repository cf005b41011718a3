package compose

import (
	"image"
	"image/draw"
	"io"

	"github.com/fogleman/gg"

	"github.com/matzehuels/memeforge/pkg/layout"
)

// Surface is a raster the size of the source image holding the source
// pixels plus any drawn captions. The caller owns it once Render returns.
type Surface struct {
	dc     *gg.Context
	layout layout.Layout
}

// NewSurface copies src onto a new surface anchored at (0, 0). src is
// never modified.
func NewSurface(src image.Image) (*Surface, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, ErrImageNotReady
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Surface{dc: gg.NewContextForRGBA(dst)}, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.dc.Width() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.dc.Height() }

// Image returns the underlying raster. It aliases the surface.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// Layout returns the line layout used by the last Draw.
func (s *Surface) Layout() layout.Layout { return s.layout }

// EncodePNG writes the surface as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}
