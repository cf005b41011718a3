package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/sink"
)

// =============================================================================
// Style Flags
// =============================================================================

// styleFlags holds the caption style flags shared by generate, render and
// edit. Explicit flags win over the --style shorthand, which wins over the
// configured default.
type styleFlags struct {
	expr        string
	fontSize    int
	fontFamily  string
	fillColor   string
	strokeColor string
	strokeWidth int
}

func (f *styleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.expr, "style", "s", "", `style shorthand, e.g. "56px Impact fill #fff stroke 4px #000"`)
	cmd.Flags().IntVar(&f.fontSize, "font-size", 0, "font size in pixels")
	cmd.Flags().StringVar(&f.fontFamily, "font", "", "font family: "+strings.Join(meme.Families, ", "))
	cmd.Flags().StringVar(&f.fillColor, "fill", "", "text fill color (#rgb or #rrggbb)")
	cmd.Flags().StringVar(&f.strokeColor, "stroke", "", "outline color (#rgb or #rrggbb)")
	cmd.Flags().IntVar(&f.strokeWidth, "stroke-width", 0, "outline width in pixels (0 disables)")
}

// resolve applies the flags on top of base.
func (f *styleFlags) resolve(cmd *cobra.Command, base meme.Style) (meme.Style, error) {
	st, err := meme.ParseStyle(f.expr, base)
	if err != nil {
		return base, err
	}
	if f.fontSize != 0 {
		st.FontSize = f.fontSize
	}
	if f.fontFamily != "" {
		st.FontFamily = f.fontFamily
	}
	if f.fillColor != "" {
		st.FillColor = f.fillColor
	}
	if f.strokeColor != "" {
		st.StrokeColor = f.strokeColor
	}
	if cmd.Flags().Changed("stroke-width") {
		st.StrokeWidth = f.strokeWidth
	}
	st = st.WithDefaults()
	if err := st.Validate(); err != nil {
		return base, err
	}
	return st, nil
}

// =============================================================================
// Artifact Output
// =============================================================================

// basePath derives the base output path. If output is empty, a timestamped
// "meme-<ms>" name is used. If output has a known format extension, it is
// stripped.
func basePath(output string, now time.Time) string {
	if output == "" {
		name := sink.DownloadName(now, sink.FormatPNG)
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	ext := filepath.Ext(output)
	if _, err := sink.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil && ext != "" {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns the file name for one format. A single requested
// format keeps an explicit output name unchanged.
func outputPath(output, base string, f sink.Format, single bool) string {
	if single && output != "" && filepath.Ext(output) != "" {
		return output
	}
	return base + "." + f.Ext()
}

// writeArtifacts writes every artifact in formats order and returns the
// written paths.
func writeArtifacts(artifacts map[sink.Format][]byte, formats []sink.Format, output string) ([]string, error) {
	base := basePath(output, time.Now())
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		path := outputPath(output, base, f, len(formats) == 1)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
