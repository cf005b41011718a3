package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/config"
	"github.com/matzehuels/memeforge/pkg/history"
	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/pipeline"
	"github.com/matzehuels/memeforge/pkg/sink"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// historyCommand creates the history management command.
func (c *CLI) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Browse recently generated memes",
	}

	cmd.AddCommand(c.historyListCommand())
	cmd.AddCommand(c.historyShowCommand())
	cmd.AddCommand(c.historyPickCommand())
	cmd.AddCommand(c.historyClearCommand())

	return cmd
}

// openHistory opens the configured history store without building a full
// runner, so listing history never needs caption credentials.
func (c *CLI) openHistory(ctx context.Context) (history.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return newHistory(ctx, cfg.History, false)
}

// withHistory opens the history store, passes it to fn and closes it.
func (c *CLI) withHistory(cmd *cobra.Command, fn func(context.Context, history.Store) error) error {
	ctx := withLogger(cmd.Context(), c.Logger)
	store, err := c.openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

// historyListCommand creates the "history list" subcommand.
func (c *CLI) historyListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent memes, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withHistory(cmd, func(ctx context.Context, store history.Store) error {
				recs, err := store.List(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), recs)
				}
				if len(recs) == 0 {
					printInfo("History is empty")
					printNextStep("Create one", appName+" generate <topic>")
					return nil
				}
				fmt.Fprintln(uiOut, historyTable(recs))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

// historyShowCommand creates the "history show" subcommand.
func (c *CLI) historyShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Show one meme from history",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMemeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withHistory(cmd, func(ctx context.Context, store history.Store) error {
				rec, err := findRecord(ctx, store, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rec)
				}
				printRecord(rec)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the record as JSON")
	return cmd
}

// historyPickCommand creates the "history pick" subcommand.
func (c *CLI) historyPickCommand() *cobra.Command {
	var (
		output  string
		formats string
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick a meme from history interactively and render it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := sink.ParseFormats(formats)
			if err != nil {
				return err
			}
			return c.withRunner(cmd, runnerOpts{provider: config.ProviderStatic}, func(ctx context.Context, r *pipeline.Runner) error {
				recs, err := r.History.List(ctx)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					printInfo("History is empty")
					return nil
				}

				final, err := tea.NewProgram(NewHistoryListModel(recs), tea.WithContext(ctx)).Run()
				if err != nil {
					return fmt.Errorf("history picker: %w", err)
				}
				m, ok := final.(HistoryListModel)
				if !ok || m.Selected == nil {
					printInfo("Nothing selected")
					return nil
				}

				res, err := r.Regenerate(ctx, m.Selected.ID, fs...)
				if err != nil {
					return err
				}
				paths, err := writeArtifacts(res.Artifacts, fs, output)
				if err != nil {
					return err
				}
				printSuccess("Rendered %s", m.Selected.ID)
				printCaption(res.Record.TopText, res.Record.BottomText)
				for _, p := range paths {
					printFile(p)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): png (default), jpeg, pdf, json (comma-separated)")
	return cmd
}

// historyClearCommand creates the "history clear" subcommand.
func (c *CLI) historyClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every meme from history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withHistory(cmd, func(ctx context.Context, store history.Store) error {
				recs, err := store.List(ctx)
				if err != nil {
					return err
				}
				if err := store.Clear(ctx); err != nil {
					return err
				}
				printSuccess("Cleared %d memes from history", len(recs))
				return nil
			})
		},
	}
}

// findRecord looks up a record by full ID or by a unique ID prefix, as
// shown in the history table.
func findRecord(ctx context.Context, store history.Store, ref string) (meme.Record, error) {
	rec, err := store.Get(ctx, ref)
	if err == nil || !errs.Is(err, errs.ErrCodeMemeNotFound) {
		return rec, err
	}
	recs, lerr := store.List(ctx)
	if lerr != nil {
		return rec, lerr
	}
	var matches []meme.Record
	for _, r := range recs {
		if strings.HasPrefix(r.ID, ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return rec, err
	case 1:
		return matches[0], nil
	default:
		return rec, errs.New(errs.ErrCodeInvalidInput, "id prefix %q matches %d memes", ref, len(matches))
	}
}

// historyTable renders records as a static table.
func historyTable(recs []meme.Record) string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{shortID(r.ID), r.Topic, truncate(captionLine(r), 48), formatRelativeTime(r.Timestamp)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Topic", "Caption", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 3:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// captionLine joins the two caption lines as displayed.
func captionLine(r meme.Record) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{r.TopText, r.BottomText} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, strings.ToUpper(s))
		}
	}
	return strings.Join(parts, " / ")
}

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
