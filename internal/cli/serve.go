package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/pipeline"
	"github.com/matzehuels/memeforge/pkg/server"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		baseURL    string
		provider   string
		allowHosts []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the memeforge HTTP API",
		Long: `Serve runs the HTTP API: caption generation, meme generation and
rendering, history and share links. The server stops gracefully on
interrupt.

/api/render only fetches images from i.imgflip.com unless other hosts are
allowed with --allow-host or [server] allowed_hosts ("*" allows any).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if baseURL == "" {
				baseURL = cfg.Server.BaseURL
			}
			if len(allowHosts) == 0 {
				allowHosts = cfg.Server.AllowedHosts
			}
			return c.withRunner(cmd, runnerOpts{provider: provider}, func(ctx context.Context, r *pipeline.Runner) error {
				srv := server.New(r, server.Options{BaseURL: baseURL, AllowedHosts: allowHosts, Logger: c.Logger})
				printInfo("Serving on %s", StyleHighlight.Render(addr))
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL used in share links")
	cmd.Flags().StringSliceVar(&allowHosts, "allow-host", nil, "image hosts /api/render may fetch from (repeatable, \"*\" for any)")
	cmd.Flags().StringVar(&provider, "provider", "", "caption provider: gateway, gemini, static (overrides config)")
	return cmd
}
