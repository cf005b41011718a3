package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/config"
	"github.com/matzehuels/memeforge/pkg/layout"
	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/pipeline"
	"github.com/matzehuels/memeforge/pkg/sink"
	"github.com/matzehuels/memeforge/pkg/source"
)

// editCommand creates the live caption editor command.
func (c *CLI) editCommand() *cobra.Command {
	var (
		output    string
		formats   string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a meme's caption and style with a live preview",
		Long: `Edit opens a terminal editor for a meme from history. Every change
re-renders the meme in the background and the preview shows the wrapped
lines and their positions. Save with ctrl+s to write the result and add it
to history as a new meme.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMemeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := sink.ParseFormats(formats)
			if err != nil {
				return err
			}
			return c.withRunner(cmd, runnerOpts{provider: config.ProviderStatic}, func(ctx context.Context, r *pipeline.Runner) error {
				rec, err := findRecord(ctx, r.History, args[0])
				if err != nil {
					return err
				}

				spinner := newSpinner(ctx, "Loading image...")
				spinner.Start()
				decoded, err := r.Loader.LoadSync(ctx, rec.ImageURL)
				if err != nil {
					spinner.Stop()
					return err
				}
				spinner.StopWithSuccess(fmt.Sprintf("Loaded %s image (%d bytes)", decoded.Format, decoded.Size))

				render := func(top, bottom string, st meme.Style) (layout.Layout, error) {
					s, err := r.Engine.Render(decoded.Image, top, bottom, st)
					if err != nil {
						return layout.Layout{}, err
					}
					return s.Layout(), nil
				}

				final, err := tea.NewProgram(NewEditorModel(rec, render), tea.WithContext(ctx)).Run()
				if err != nil {
					return fmt.Errorf("editor: %w", err)
				}
				m, ok := final.(EditorModel)
				if !ok || !m.Saved {
					printInfo("Discarded changes")
					return nil
				}
				return saveEdit(ctx, r, rec, m, fs, output, !noHistory)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): png (default), jpeg, pdf, json (comma-separated)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the edited meme in history")
	return cmd
}

// saveEdit renders the edited meme, writes it and optionally records it.
func saveEdit(ctx context.Context, r *pipeline.Runner, orig meme.Record, m EditorModel, formats []sink.Format, output string, record bool) error {
	style := m.Style
	res, err := r.Render(ctx, pipeline.RenderOptions{
		ImageURL: orig.ImageURL,
		Top:      m.Top(),
		Bottom:   m.Bottom(),
		Style:    style,
		Formats:  formats,
	})
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(res.Artifacts, formats, output)
	if err != nil {
		return err
	}

	printSuccess("Saved edit")
	printCaption(m.Top(), m.Bottom())
	for _, p := range paths {
		printFile(p)
	}
	if record {
		rec := meme.NewRecord(orig.ImageURL, m.Top(), m.Bottom(), orig.Topic, &style)
		if err := r.History.Add(ctx, rec); err != nil {
			printWarning("History not updated: %v", err)
			return nil
		}
		printDetail("Recorded as %s", rec.ID)
	}
	return nil
}

// =============================================================================
// EditorModel - Live caption editor
// =============================================================================

// renderFunc lays out and draws a caption, returning the line positions.
type renderFunc func(top, bottom string, style meme.Style) (layout.Layout, error)

// renderedMsg delivers a background render. Only the result whose ticket
// is still current is shown.
type renderedMsg struct {
	ticket source.Ticket
	layout layout.Layout
	took   time.Duration
	err    error
}

const (
	fieldTop = iota
	fieldBottom
)

var (
	editorLabelStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(8)
	editorFocusStyle  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Width(8)
	editorPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	editorErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	editorStaleStyle  = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	editorFamilyStyle = lipgloss.NewStyle().Foreground(colorWhite)
)

// EditorModel is the bubbletea model for the live editor.
type EditorModel struct {
	Record meme.Record
	Style  meme.Style
	Saved  bool

	inputs  [2]textinput.Model
	focus   int
	render  renderFunc
	tracker *source.Tracker

	preview    layout.Layout
	previewErr error
	took       time.Duration
	pending    bool
	rendered   int // results shown
	discarded  int // stale results dropped
}

// NewEditorModel creates an editor seeded with rec's caption and style.
func NewEditorModel(rec meme.Record, render renderFunc) EditorModel {
	m := EditorModel{
		Record:  rec,
		Style:   rec.EffectiveStyle(),
		render:  render,
		tracker: &source.Tracker{},
	}
	for i, v := range []string{rec.TopText, rec.BottomText} {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 200
		ti.Width = 60
		ti.SetValue(v)
		m.inputs[i] = ti
	}
	m.inputs[fieldTop].Focus()
	return m
}

// Top returns the current top text.
func (m EditorModel) Top() string { return m.inputs[fieldTop].Value() }

// Bottom returns the current bottom text.
func (m EditorModel) Bottom() string { return m.inputs[fieldBottom].Value() }

func (m EditorModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.scheduleRender())
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderedMsg:
		if !m.tracker.Current(msg.ticket) {
			m.discarded++
			return m, nil
		}
		m.pending = false
		m.preview, m.previewErr, m.took = msg.layout, msg.err, msg.took
		m.rendered++
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+s":
			m.Saved = true
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			m.inputs[m.focus].Blur()
			m.focus = 1 - m.focus
			cmd := m.inputs[m.focus].Focus()
			return m, cmd
		case "pgup":
			return m.restyle(func(s *meme.Style) { s.FontSize = min(s.FontSize+meme.FontSizeStep, meme.MaxFontSize) })
		case "pgdown":
			return m.restyle(func(s *meme.Style) { s.FontSize = max(s.FontSize-meme.FontSizeStep, meme.MinFontSize) })
		case "shift+up":
			return m.restyle(func(s *meme.Style) { s.StrokeWidth = min(s.StrokeWidth+1, meme.MaxStrokeWidth) })
		case "shift+down":
			return m.restyle(func(s *meme.Style) { s.StrokeWidth = max(s.StrokeWidth-1, meme.MinStrokeWidth) })
		case "ctrl+f":
			return m.restyle(func(s *meme.Style) { s.FontFamily = nextFamily(s.FontFamily) })
		}
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() != before {
		render := m.scheduleRender()
		return m, tea.Batch(cmd, render)
	}
	return m, cmd
}

// restyle applies fn to the style and re-renders if it changed anything.
func (m EditorModel) restyle(fn func(*meme.Style)) (tea.Model, tea.Cmd) {
	before := m.Style
	fn(&m.Style)
	if m.Style == before {
		return m, nil
	}
	cmd := m.scheduleRender()
	return m, cmd
}

// scheduleRender hands out a new ticket and renders the current inputs in
// the background. Earlier tickets become stale.
func (m *EditorModel) scheduleRender() tea.Cmd {
	top, bottom, style := m.Top(), m.Bottom(), m.Style
	ticket := m.tracker.Next()
	m.pending = true
	render := m.render
	return func() tea.Msg {
		start := time.Now()
		l, err := render(top, bottom, style)
		return renderedMsg{ticket: ticket, layout: l, took: time.Since(start), err: err}
	}
}

// nextFamily cycles through meme.Families.
func nextFamily(current string) string {
	i := slices.IndexFunc(meme.Families, func(f string) bool { return strings.EqualFold(f, current) })
	return meme.Families[(i+1)%len(meme.Families)]
}

func (m EditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Edit Meme"))
	if m.Record.Topic != "" {
		b.WriteString(StyleDim.Render("  " + m.Record.Topic))
	}
	b.WriteString("\n\n")

	for i, label := range []string{"Top", "Bottom"} {
		ls := editorLabelStyle
		if i == m.focus {
			ls = editorFocusStyle
		}
		b.WriteString(ls.Render(label))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString(editorLabelStyle.Render("Style"))
	b.WriteString(editorFamilyStyle.Render(fmt.Sprintf("%dpx %s", m.Style.FontSize, m.Style.FontFamily)))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  fill %s  stroke %dpx %s", m.Style.FillColor, m.Style.StrokeWidth, m.Style.StrokeColor)))
	b.WriteString("\n\n")

	b.WriteString(editorPanelStyle.Render(m.previewView()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab switch  pgup/pgdn size  shift+↑/↓ outline  ctrl+f font  ctrl+s save  esc quit"))
	return b.String()
}

// previewView shows the wrapped lines at their vertical positions.
func (m EditorModel) previewView() string {
	if m.previewErr != nil {
		return editorErrorStyle.Render(m.previewErr.Error())
	}
	if m.rendered == 0 {
		return editorStaleStyle.Render("rendering...")
	}

	var b strings.Builder
	l := m.preview
	fmt.Fprintf(&b, "%s\n", StyleDim.Render(fmt.Sprintf("%d×%d  max line width %.0fpx", l.Width, l.Height, layout.MaxWidth(l.Width))))
	for _, line := range l.Top {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render(fmt.Sprintf("y=%-4.0f", line.Y)), StyleValue.Render(line.Text))
	}
	if len(l.Top) > 0 && len(l.Bottom) > 0 {
		b.WriteString(StyleDim.Render("   ⋮") + "\n")
	}
	for _, line := range l.Bottom {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render(fmt.Sprintf("y=%-4.0f", line.Y)), StyleValue.Render(line.Text))
	}
	if captionsOverlap(l) {
		b.WriteString(StyleWarning.Render("! top and bottom captions overlap") + "\n")
	}

	status := fmt.Sprintf("%s render", m.took.Round(time.Millisecond))
	if m.pending {
		status = "updating..."
	}
	b.WriteString(editorStaleStyle.Render(status))
	return b.String()
}

// captionsOverlap reports whether the last top line reaches into the first
// bottom line.
func captionsOverlap(l layout.Layout) bool {
	if len(l.Top) == 0 || len(l.Bottom) == 0 {
		return false
	}
	topEnd := l.Top[len(l.Top)-1].Y + float64(layout.LineHeight(l.FontSize))
	return topEnd > l.Bottom[0].Y
}
