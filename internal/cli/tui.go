package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/memeforge/pkg/meme"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

type listKeyMap struct {
	Up, Down, PageUp, PageDown, Select, Quit key.Binding
}

func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.PageUp, k.PageDown}, {k.Select, k.Quit}}
}

var listKeys = listKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "f", " "), key.WithHelp("pgdn", "page down")),
	Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "render")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// listChrome is the number of lines around the table: title, help, the
// caption preview and the position footer.
const listChrome = 12

// HistoryListModel picks a meme from history. Selected is set when the user
// confirms a record.
type HistoryListModel struct {
	Records  []meme.Record
	Cursor   int
	Selected *meme.Record
	Height   int
	Offset   int

	help help.Model
}

func NewHistoryListModel(recs []meme.Record) HistoryListModel {
	return HistoryListModel{Records: recs, Height: 10, help: help.New()}
}

func (m HistoryListModel) Init() tea.Cmd { return nil }

// move shifts the cursor by delta, clamped to the list, and scrolls so the
// cursor stays visible.
func (m *HistoryListModel) move(delta int) {
	if len(m.Records) == 0 {
		return
	}
	m.Cursor = max(0, min(m.Cursor+delta, len(m.Records)-1))
	switch {
	case m.Cursor < m.Offset:
		m.Offset = m.Cursor
	case m.Cursor >= m.Offset+m.Height:
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m HistoryListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, listKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, listKeys.Up):
			m.move(-1)
		case key.Matches(msg, listKeys.Down):
			m.move(1)
		case key.Matches(msg, listKeys.PageUp):
			m.move(-m.Height)
		case key.Matches(msg, listKeys.PageDown):
			m.move(m.Height)
		case key.Matches(msg, listKeys.Select):
			if len(m.Records) == 0 {
				return m, nil
			}
			rec := m.Records[m.Cursor]
			m.Selected = &rec
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-listChrome, 3)
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m HistoryListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Meme"))
	b.WriteString("\n")
	b.WriteString(m.help.View(listKeys))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Records))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Records[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, r.Topic, truncate(captionLine(r), 40), formatRelativeTime(r.Timestamp)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Topic", "Caption", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			isCurrent := m.Offset+row == m.Cursor
			switch {
			case isCurrent && col == 3:
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			case isCurrent:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case col == 3:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.Cursor < len(m.Records) {
		r := m.Records[m.Cursor]
		b.WriteString(listSelectedStyle.Render(strings.ToUpper(r.TopText)))
		b.WriteString("\n")
		b.WriteString(listSelectedStyle.Render(strings.ToUpper(r.BottomText)))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(r.EffectiveStyle().String()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Records))))

	return b.String()
}

// formatRelativeTime renders t relative to now, switching to a date after a
// week.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
