package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links and commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - labels
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleFresh       = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Status Output
// =============================================================================

// uiOut receives human-readable status output. Machine-readable output
// (--json, paths) goes to the command's own writer instead.
var uiOut io.Writer = os.Stdout

// statusIcon pairs a glyph with its color.
type statusIcon struct {
	glyph string
	style lipgloss.Style
}

var (
	iconSuccess = statusIcon{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	iconError   = statusIcon{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	iconWarning = statusIcon{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	iconInfo    = statusIcon{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

const iconArrow = "→"

func (i statusIcon) String() string { return i.style.Render(i.glyph) }

func printStatus(icon statusIcon, msg string) {
	fmt.Fprintln(uiOut, icon.String()+" "+msg)
}

func printSuccess(format string, args ...any) {
	printStatus(iconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printStatus(iconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printStatus(iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printStatus(iconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line under a status message.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	fmt.Fprintln(uiOut, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(uiOut)
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints render statistics on a single line.
func printStats(res *pipeline.Result) {
	var parts []string
	if res.Stats.Template != "" {
		parts = append(parts, res.Stats.Template)
	}
	if res.Stats.Provider != "" {
		parts = append(parts, res.Stats.Provider)
	}
	if !res.CacheInfo.RenderHit {
		parts = append(parts, fmt.Sprintf("%d lines", res.Stats.Lines))
		parts = append(parts, fmt.Sprintf("%s render", res.Stats.RenderTime.Round(time.Millisecond)))
	}

	status := styleFresh.Render("fresh")
	if res.CacheInfo.RenderHit {
		status = styleCached.Render("cached")
	}
	parts = append(parts, status)

	for i, p := range parts[:len(parts)-1] {
		parts[i] = StyleDim.Render(p)
	}
	fmt.Fprintln(uiOut, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// =============================================================================
// Meme Output
// =============================================================================

// printCaption prints the two caption lines as they will appear.
func printCaption(top, bottom string) {
	if top != "" {
		printKeyValue("Top", strings.ToUpper(top))
	}
	if bottom != "" {
		printKeyValue("Bottom", strings.ToUpper(bottom))
	}
}

// printRecord prints a history record.
func printRecord(rec meme.Record) {
	printKeyValue("ID", StyleHighlight.Render(rec.ID))
	if rec.Topic != "" {
		printKeyValue("Topic", rec.Topic)
	}
	printCaption(rec.TopText, rec.BottomText)
	printKeyValue("Image", StyleLink.Render(rec.ImageURL))
	printKeyValue("Style", rec.EffectiveStyle().String())
	if !rec.Timestamp.IsZero() {
		printKeyValue("Created", rec.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
}
