package sink

import (
	"bytes"
	"fmt"
	"image"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
)

// PixelsPerMM maps raster pixels to page millimetres at 96 DPI.
const PixelsPerMM = 96 / 25.4

// RenderPDF embeds img in a single page sized to the image at 96 DPI.
func RenderPDF(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("render pdf: empty image")
	}
	w := float64(b.Dx()) / PixelsPerMM
	h := float64(b.Dy()) / PixelsPerMM

	c := canvas.New(w, h)
	ctx := canvas.NewContext(c)
	ctx.DrawImage(0, 0, img, canvas.DPMM(PixelsPerMM))

	var buf bytes.Buffer
	writer := pdf.New(&buf, w, h, nil)
	writer.SetInfo("meme", "", "", "", "memeforge")
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
