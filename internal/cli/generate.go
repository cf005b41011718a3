package cli

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/integrations/imgflip"
	"github.com/matzehuels/memeforge/pkg/pipeline"
	"github.com/matzehuels/memeforge/pkg/sink"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output     string
	formats    string
	templateID string
	imageURL   string
	caption    string
	provider   string
	seed       uint64
	noHistory  bool
	noCache    bool
	style      styleFlags
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate a meme about a topic",
		Long: `Generate picks a random meme template, asks the caption provider for a
two-line caption about the topic and renders it onto the template.

The meme is written to the current directory and recorded in history.`,
		Example: `  memeforge generate "kubernetes on a friday"
  memeforge generate golang --format png,pdf -o gophers
  memeforge generate "code review" --style "56px \"Comic Sans MS\" fill #ff0"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := sink.ParseFormats(opts.formats)
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			style, err := opts.style.resolve(cmd, cfg.Style)
			if err != nil {
				return err
			}
			popts := pipeline.Options{
				Topic:      strings.Join(args, " "),
				Style:      style,
				Formats:    formats,
				TemplateID: opts.templateID,
				ImageURL:   opts.imageURL,
				Caption:    strings.ReplaceAll(opts.caption, `\n`, "\n"),
				NoHistory:  opts.noHistory,
			}
			ropts := runnerOpts{noCache: opts.noCache, provider: opts.provider}
			return c.withRunner(cmd, ropts, func(ctx context.Context, r *pipeline.Runner) error {
				if opts.seed != 0 {
					seedTemplates(r, opts.seed)
				}
				return runGenerate(ctx, r, popts, opts.output)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): png (default), jpeg, pdf, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.templateID, "template", "t", "", "use this imgflip template ID instead of a random one")
	cmd.Flags().StringVar(&opts.imageURL, "image", "", "use this image URL instead of a template")
	cmd.Flags().StringVar(&opts.caption, "caption", "", `use this caption instead of generating one ("top\nbottom")`)
	cmd.Flags().StringVar(&opts.provider, "provider", "", "caption provider: gateway, gemini, static (overrides config)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for template selection (0 = random)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the meme in history")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	opts.style.register(cmd)

	return cmd
}

// seedTemplates makes random template selection reproducible.
func seedTemplates(r *pipeline.Runner, seed uint64) {
	if client, ok := r.Templates.(*imgflip.Client); ok {
		client.WithRand(rand.New(rand.NewPCG(seed, 0)))
	}
}

// runGenerate generates one meme, writes its artifacts and prints a summary.
func runGenerate(ctx context.Context, r *pipeline.Runner, opts pipeline.Options, output string) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Generating meme about %q", opts.Topic)
	prog := newProgress(logger)

	spinner := newSpinner(ctx, "Writing caption and fetching template...")
	spinner.Start()
	res, err := r.Generate(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()
	prog.done("Generated meme")

	paths, err := writeArtifacts(res.Artifacts, opts.Formats, output)
	if err != nil {
		return err
	}

	printSuccess("Meme ready")
	printCaption(res.Record.TopText, res.Record.BottomText)
	printStats(res)
	for _, p := range paths {
		printFile(p)
	}
	if !opts.NoHistory {
		printNewline()
		printNextStep("Edit it", appName+" edit "+res.Record.ID)
		printNextStep("Share it", appName+" share "+res.Record.ID)
	}
	return nil
}
