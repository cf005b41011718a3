package sink

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/matzehuels/memeforge/pkg/layout"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// Formats lists every supported format, default first.
var Formats = []Format{FormatPNG, FormatJPEG, FormatPDF, FormatJSON}

// ParseFormat resolves a format name or file extension. Empty means png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	case "json":
		return FormatJSON, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q (want png, jpeg, pdf or json)", s)
}

// ParseFormats parses a comma separated list, dropping duplicates.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = []Format{FormatPNG}
	}
	return out, nil
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// ContentType returns the MIME type for HTTP responses.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "image/png"
	}
}

// DownloadName returns "meme-<unix millis>.<ext>".
func DownloadName(now time.Time, f Format) string {
	return fmt.Sprintf("meme-%d.%s", now.UnixMilli(), f.Ext())
}

// Encode renders img (or l, for json) in format f.
func Encode(f Format, img image.Image, l layout.Layout) ([]byte, error) {
	switch f {
	case FormatPNG, "":
		return RenderPNG(img)
	case FormatJPEG:
		return RenderJPEG(img, DefaultJPEGQuality)
	case FormatPDF:
		return RenderPDF(img)
	case FormatJSON:
		return RenderJSON(l)
	}
	return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q", f)
}
