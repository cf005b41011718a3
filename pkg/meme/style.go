package meme

import (
	"fmt"
	"image/color"
	"slices"
	"strconv"
	"strings"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// Editor ranges for font size and outline width. The render engine does
// not enforce them; Validate does.
const (
	MinFontSize    = 24
	MaxFontSize    = 72
	FontSizeStep   = 2
	MinStrokeWidth = 0
	MaxStrokeWidth = 10
)

// Families lists the font families offered by the editor.
var Families = []string{"Impact", "Arial Black", "Comic Sans MS", "Courier New"}

// Style controls how caption text is drawn.
type Style struct {
	FontSize    int    `json:"font_size" toml:"font_size" yaml:"font_size" bson:"font_size"`
	FontFamily  string `json:"font_family" toml:"font_family" yaml:"font_family" bson:"font_family"`
	FillColor   string `json:"fill_color" toml:"fill_color" yaml:"fill_color" bson:"fill_color"`
	StrokeColor string `json:"stroke_color" toml:"stroke_color" yaml:"stroke_color" bson:"stroke_color"`
	StrokeWidth int    `json:"stroke_width" toml:"stroke_width" yaml:"stroke_width" bson:"stroke_width"`
}

// DefaultStyle returns the classic meme look: 48px white Impact with a 3px
// black outline.
func DefaultStyle() Style {
	return Style{
		FontSize:    48,
		FontFamily:  "Impact",
		FillColor:   "#FFFFFF",
		StrokeColor: "#000000",
		StrokeWidth: 3,
	}
}

// WithDefaults fills zero-valued fields from DefaultStyle. StrokeWidth 0
// is a valid choice and is kept.
func (s Style) WithDefaults() Style {
	d := DefaultStyle()
	if s.FontSize == 0 {
		s.FontSize = d.FontSize
	}
	if s.FontFamily == "" {
		s.FontFamily = d.FontFamily
	}
	if s.FillColor == "" {
		s.FillColor = d.FillColor
	}
	if s.StrokeColor == "" {
		s.StrokeColor = d.StrokeColor
	}
	return s
}

// Validate checks s against the editor ranges and colour syntax.
func (s Style) Validate() error {
	if s.FontSize < MinFontSize || s.FontSize > MaxFontSize {
		return errs.New(errs.ErrCodeInvalidStyle, "font size %d out of range [%d, %d]", s.FontSize, MinFontSize, MaxFontSize)
	}
	if (s.FontSize-MinFontSize)%FontSizeStep != 0 {
		return errs.New(errs.ErrCodeInvalidStyle, "font size %d is not a multiple of %dpx", s.FontSize, FontSizeStep)
	}
	if s.StrokeWidth < MinStrokeWidth || s.StrokeWidth > MaxStrokeWidth {
		return errs.New(errs.ErrCodeInvalidStyle, "stroke width %d out of range [%d, %d]", s.StrokeWidth, MinStrokeWidth, MaxStrokeWidth)
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		return errs.New(errs.ErrCodeInvalidStyle, "font family is required")
	}
	if _, err := ParseColor(s.FillColor); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidStyle, err, "invalid fill color")
	}
	if _, err := ParseColor(s.StrokeColor); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidStyle, err, "invalid stroke color")
	}
	return nil
}

// KnownFamily reports whether family is one of Families (case-insensitive).
func KnownFamily(family string) bool {
	return slices.ContainsFunc(Families, func(f string) bool {
		return strings.EqualFold(f, family)
	})
}

// String renders s in shorthand form, accepted by ParseStyle.
func (s Style) String() string {
	family := s.FontFamily
	if strings.ContainsAny(family, " \t") || family == "" {
		family = strconv.Quote(family)
	}
	return fmt.Sprintf("%dpx %s fill %s stroke %dpx %s", s.FontSize, family, s.FillColor, s.StrokeWidth, s.StrokeColor)
}

// ParseColor parses #RGB, #RGBA, #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("color %q: missing '#'", s)
	}
	switch len(hex) {
	case 3, 4:
		var b strings.Builder
		for _, r := range hex {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		hex = b.String()
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("color %q: want 3, 4, 6 or 8 hex digits", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
