package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/fonts"
	"github.com/matzehuels/memeforge/pkg/meme"
)

// fontsCommand creates the fonts command, which shows where each caption
// font family resolves to.
func (c *CLI) fontsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fonts [family...]",
		Short: "Show which font file each caption family uses",
		Long: `Fonts resolves the caption font families (by default the four offered by
the editor) and shows whether an installed font or a built-in fallback is
used. Extra search directories come from fonts.dirs in the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			families := args
			if len(families) == 0 {
				families = meme.Families
			}
			resolved, err := newFonts(cfg.Fonts).List(families)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resolved)
			}
			fmt.Fprintln(uiOut, fontsTable(resolved))
			for _, r := range resolved {
				if r.Builtin() {
					printDetail("Built-in fonts are metric stand-ins; install the family for the classic look")
					break
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// fontsTable renders resolved fonts as a table.
func fontsTable(resolved []fonts.Resolved) string {
	rows := make([][]string, 0, len(resolved))
	for _, r := range resolved {
		status := iconSuccess.String() + " installed"
		if r.Builtin() {
			status = iconWarning.String() + " fallback"
		}
		rows = append(rows, []string{r.Family, status, r.Source})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Family", "Status", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				if resolved[row].Builtin() {
					return lipgloss.NewStyle().Foreground(colorYellow)
				}
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
