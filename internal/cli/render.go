package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/pipeline"
	"github.com/matzehuels/memeforge/pkg/sink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string // output file path (or base path for multiple outputs)
	formats   string // output formats: "png", "jpeg", "pdf", "json"
	imageURL  string // remote source image
	imagePath string // local source image
	top       string
	bottom    string
	refresh   bool // ignore cached artifacts
	noCache   bool
	style     styleFlags
}

// renderCommand creates the render command for captioning an arbitrary image.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Caption an image with top and bottom text",
		Long: `Render draws top and bottom meme text onto an image given by URL or local
path. Text is upper-cased, wrapped to the image width and outlined.

Rendered artifacts are cached by image, text and style, so repeating a
render is instant.`,
		Example: `  memeforge render --image https://i.imgflip.com/30b1gx.jpg --top "one does not simply" --bottom "deploy on friday"
  memeforge render --file cat.png --top "i can has" --bottom "cheezburger" -f png,json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.imageURL == "" && opts.imagePath == "" {
				return errors.New("one of --image or --file is required")
			}
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
			ropts := pipeline.RenderOptions{
				ImageURL:  opts.imageURL,
				ImagePath: opts.imagePath,
				Top:       opts.top,
				Bottom:    opts.bottom,
				Style:     style,
				Formats:   formats,
				Refresh:   opts.refresh,
			}
			return c.withRunner(cmd, runnerOpts{noCache: opts.noCache}, func(ctx context.Context, r *pipeline.Runner) error {
				return runRender(ctx, r, ropts, opts.output)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): png (default), jpeg, pdf, json (comma-separated)")
	cmd.Flags().StringVar(&opts.imageURL, "image", "", "source image URL")
	cmd.Flags().StringVar(&opts.imagePath, "file", "", "source image file")
	cmd.Flags().StringVar(&opts.top, "top", "", "top text")
	cmd.Flags().StringVar(&opts.bottom, "bottom", "", "bottom text")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if a cached result exists")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.MarkFlagsMutuallyExclusive("image", "file")
	opts.style.register(cmd)

	return cmd
}

// runRender renders the meme and writes the requested formats.
func runRender(ctx context.Context, r *pipeline.Runner, opts pipeline.RenderOptions, output string) error {
	logger := loggerFromContext(ctx)
	src := opts.ImageURL
	if src == "" {
		src = opts.ImagePath
	}
	logger.Infof("Rendering %s", src)
	prog := newProgress(logger)

	res, err := r.Render(ctx, opts)
	if err != nil {
		return err
	}
	if res.CacheInfo.RenderHit {
		prog.done("Loaded cached render")
	} else {
		prog.done("Rendered meme")
	}

	paths, err := writeArtifacts(res.Artifacts, opts.Formats, output)
	if err != nil {
		return err
	}
	printSuccess("Meme ready")
	printStats(res)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
