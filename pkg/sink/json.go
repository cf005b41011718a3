package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/memeforge/pkg/layout"
)

type jsonOutput struct {
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	FontSize int        `json:"font_size"`
	MaxWidth float64    `json:"max_width"`
	Lines    []jsonLine `json:"lines"`
}

type jsonLine struct {
	Slot string  `json:"slot"` // "top" or "bottom"
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// RenderJSON exports the line layout as a pretty-printed JSON document.
func RenderJSON(l layout.Layout) ([]byte, error) {
	out := jsonOutput{
		Width:    l.Width,
		Height:   l.Height,
		FontSize: l.FontSize,
		MaxWidth: layout.MaxWidth(l.Width),
		Lines:    make([]jsonLine, 0, len(l.Top)+len(l.Bottom)),
	}
	for _, ln := range l.Top {
		out.Lines = append(out.Lines, jsonLine{Slot: "top", Text: ln.Text, X: ln.X, Y: ln.Y})
	}
	for _, ln := range l.Bottom {
		out.Lines = append(out.Lines, jsonLine{Slot: "bottom", Text: ln.Text, X: ln.X, Y: ln.Y})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}
	return data, nil
}
