package layout

import (
	"strings"
)

const (
	// Margin is the distance from the top and bottom image edges to the
	// caption blocks, and the total horizontal inset used for wrapping.
	Margin = 40

	// LineGap is the extra spacing added to the font size between lines.
	LineGap = 10
)

// Measurer reports the rendered width and height of a string in the
// current font. *gg.Context satisfies it.
type Measurer interface {
	MeasureString(s string) (w, h float64)
}

// Line is one wrapped caption line. X is the horizontal centre and Y the
// top of the text box.
type Line struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Layout is the full set of positioned lines for one render.
type Layout struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FontSize int    `json:"font_size"`
	Top      []Line `json:"top"`
	Bottom   []Line `json:"bottom"`
}

// Lines returns the top lines followed by the bottom lines, the order in
// which they are drawn.
func (l Layout) Lines() []Line {
	out := make([]Line, 0, len(l.Top)+len(l.Bottom))
	out = append(out, l.Top...)
	return append(out, l.Bottom...)
}

// MaxWidth returns the width available to a caption line.
func MaxWidth(imageWidth int) float64 {
	return float64(imageWidth - Margin)
}

// LineHeight returns the vertical advance between lines.
func LineHeight(fontSize int) int {
	return fontSize + LineGap
}

// Normalize uppercases a caption.
func Normalize(text string) string {
	return strings.ToUpper(text)
}

// Wrap splits text into lines no wider than maxWidth, measured with m.
//
// Words are separated by any run of whitespace and joined with single
// spaces. Text with no words yields no lines. Wrap does not change case;
// see Normalize.
func Wrap(text string, maxWidth float64, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if w, _ := m.MeasureString(candidate); w < maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// TopY returns the top of line i in the top block.
func TopY(i, fontSize int) float64 {
	return float64(Margin + i*LineHeight(fontSize))
}

// BottomY returns the top of line i of an n-line bottom block on an image
// of the given height.
func BottomY(i, n, fontSize, imageHeight int) float64 {
	return float64(imageHeight - (n-i)*LineHeight(fontSize) - Margin)
}

// Compute wraps and positions both captions for a width x height image.
// The measurer must already be configured for fontSize.
func Compute(width, height int, top, bottom string, fontSize int, m Measurer) Layout {
	maxWidth := MaxWidth(width)
	cx := float64(width) / 2

	l := Layout{Width: width, Height: height, FontSize: fontSize}

	for i, text := range Wrap(Normalize(top), maxWidth, m) {
		l.Top = append(l.Top, Line{Text: text, X: cx, Y: TopY(i, fontSize)})
	}

	bottomLines := Wrap(Normalize(bottom), maxWidth, m)
	for i, text := range bottomLines {
		l.Bottom = append(l.Bottom, Line{Text: text, X: cx, Y: BottomY(i, len(bottomLines), fontSize, height)})
	}
	return l
}
