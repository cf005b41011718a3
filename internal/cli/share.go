package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/history"
	"github.com/matzehuels/memeforge/pkg/share"
)

// shareCommand creates the share command.
func (c *CLI) shareCommand() *cobra.Command {
	var (
		pageURL string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Print share text and social links for a meme",
		Long: `Share prints the caption with topic hashtags and a Twitter/X intent link.
A LinkedIn link needs a public page for the meme: pass --url, or set
server.base_url in the config to link to the meme served by "memeforge serve".`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMemeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return c.withHistory(cmd, func(ctx context.Context, store history.Store) error {
				rec, err := findRecord(ctx, store, args[0])
				if err != nil {
					return err
				}
				page := pageURL
				if page == "" && cfg.Server.BaseURL != "" {
					page = strings.TrimRight(cfg.Server.BaseURL, "/") + "/api/memes/" + rec.ID + ".png"
				}
				links := share.For(rec.TopText, rec.BottomText, rec.Topic, page)
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), links)
				}
				printLinks(links)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", "", "public URL of the meme (enables the LinkedIn link)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print links as JSON")
	return cmd
}

// printLinks prints share text and links.
func printLinks(l share.Links) {
	fmt.Fprintln(uiOut, StyleTitle.Render("Share text"))
	for _, line := range strings.Split(l.Text, "\n") {
		fmt.Fprintln(uiOut, "  "+StyleValue.Render(line))
	}
	printNewline()
	printKeyValue("Twitter/X", StyleLink.Render(l.Twitter))
	if l.LinkedIn != "" {
		printKeyValue("LinkedIn", StyleLink.Render(l.LinkedIn))
	} else {
		printDetail("LinkedIn needs --url or server.base_url")
	}
}
