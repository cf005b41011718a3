package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/compose"
	"github.com/matzehuels/memeforge/pkg/history"
	"github.com/matzehuels/memeforge/pkg/integrations"
	"github.com/matzehuels/memeforge/pkg/integrations/caption"
	"github.com/matzehuels/memeforge/pkg/integrations/imgflip"
	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/observability"
	"github.com/matzehuels/memeforge/pkg/sink"
	"github.com/matzehuels/memeforge/pkg/source"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// TemplateSource supplies meme base images. *imgflip.Client implements it.
type TemplateSource interface {
	RandomTemplate(ctx context.Context) (*imgflip.Template, error)
	Find(ctx context.Context, id string) (*imgflip.Template, error)
}

// Deps are the collaborators of a Runner. Zero values get defaults in
// NewRunner.
type Deps struct {
	Templates TemplateSource
	Captions  caption.Generator
	Loader    *source.Loader
	Engine    *compose.Engine
	History   history.Store
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
}

// Runner encapsulates pipeline execution with caching and history.
//
// The Runner keeps no per-run state. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Templates TemplateSource
	Captions  caption.Generator
	Loader    *source.Loader
	Engine    *compose.Engine
	History   history.Store
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
}

// NewRunner creates a runner.
//
// Defaults: NullCache, DefaultKeyer, an in-memory history, the static
// caption list, a loader downloading through the cache and an engine on
// the default font registry. Templates has no default; Generate fails
// without one unless Options.ImageURL is set.
func NewRunner(d Deps) *Runner {
	if d.Cache == nil {
		d.Cache = cache.NewNullCache()
	}
	if d.Keyer == nil {
		d.Keyer = cache.NewDefaultKeyer()
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.History == nil {
		d.History = history.NewMemoryStore(history.DefaultLimit)
	}
	if d.Captions == nil {
		d.Captions = caption.NewStatic()
	}
	if d.Loader == nil {
		d.Loader = source.NewLoader(integrations.NewClient(d.Cache, "images:", cache.TTLImage, nil))
	}
	if d.Engine == nil {
		d.Engine = compose.NewEngine(nil)
	}
	return &Runner{
		Templates: d.Templates,
		Captions:  d.Captions,
		Loader:    d.Loader,
		Engine:    d.Engine,
		History:   d.History,
		Cache:     d.Cache,
		Keyer:     d.Keyer,
		Logger:    d.Logger,
	}
}

// Generate creates a new meme for a topic: it picks a template and writes
// a caption in parallel, renders both, exports every requested format and
// records the meme in history.
func (r *Runner) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts.Logger)

	var (
		tmpl    *imgflip.Template
		decoded source.Decoded
		text    string
		stats   Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		t, err := r.pickTemplate(gctx, opts)
		if err != nil {
			return err
		}
		d, err := r.Loader.Load(gctx, t.URL).Wait(gctx)
		if err != nil {
			return err
		}
		tmpl, decoded = t, d
		stats.FetchTime = time.Since(start)
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		c, err := r.Caption(gctx, opts.Topic, opts.Caption)
		if err != nil {
			return err
		}
		text = c
		stats.CaptionTime = time.Since(start)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	top, bottom := caption.Split(text)
	style := opts.Style
	rec := meme.NewRecord(tmpl.URL, top, bottom, opts.Topic, &style)
	stats.Template = tmpl.Name
	stats.Provider = r.Captions.Name()
	if opts.Caption != "" {
		stats.Provider = "fixed"
	}

	opts.Logger.Info("gathered inputs",
		"template", tmpl.Name,
		"provider", stats.Provider,
		"fetch", stats.FetchTime,
		"caption", stats.CaptionTime)

	ropts := RenderOptions{
		ImageURL: tmpl.URL,
		Top:      top,
		Bottom:   bottom,
		Style:    style,
		Formats:  opts.Formats,
		Logger:   opts.Logger,
	}
	result, err := r.renderDecoded(ctx, decoded, ropts)
	if err != nil {
		return nil, err
	}
	r.storeArtifacts(ctx, tmpl.URL, ropts, result.Artifacts)
	result.Record = rec
	result.Stats.Template = stats.Template
	result.Stats.Provider = stats.Provider
	result.Stats.FetchTime = stats.FetchTime
	result.Stats.CaptionTime = stats.CaptionTime

	if !opts.NoHistory {
		if err := r.History.Add(ctx, rec); err != nil {
			opts.Logger.Warn("history not saved", "id", rec.ID, "error", err)
		}
	}

	opts.Logger.Info("generated meme", "id", rec.ID, "topic", rec.Topic)
	return result, nil
}

func (r *Runner) pickTemplate(ctx context.Context, opts Options) (*imgflip.Template, error) {
	if opts.ImageURL != "" {
		return &imgflip.Template{ID: "custom", Name: "custom", URL: opts.ImageURL}, nil
	}
	if r.Templates == nil {
		return nil, errs.New(errs.ErrCodeUnsupported, "no template source configured")
	}
	var (
		t   *imgflip.Template
		err error
	)
	if opts.TemplateID != "" {
		t, err = r.Templates.Find(ctx, opts.TemplateID)
	} else {
		t, err = r.Templates.RandomTemplate(ctx)
	}
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return nil, errs.Wrap(errs.ErrCodeNotFound, err, "template %q not found", opts.TemplateID)
	case err != nil:
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "failed to fetch meme templates")
	}
	return t, nil
}

// Caption generates a caption for topic. A non-empty fixed caption is
// returned as is after the topic check.
func (r *Runner) Caption(ctx context.Context, topic, fixed string) (string, error) {
	topic = errs.NormalizeTopic(topic)
	if err := errs.ValidateTopic(topic); err != nil {
		return "", err
	}
	if fixed != "" {
		return fixed, nil
	}

	hooks := observability.Pipeline()
	provider := r.Captions.Name()
	hooks.OnCaptionStart(ctx, provider, topic)
	start := time.Now()
	text, err := r.Captions.Generate(ctx, topic)
	hooks.OnCaptionComplete(ctx, provider, time.Since(start), err)
	return text, err
}

// Render draws captions over an existing image and exports the requested
// formats. When every format is cached and Refresh is false, the cached
// artifacts are returned without downloading the image. Local files are
// always read, since they are keyed by content.
func (r *Runner) Render(ctx context.Context, opts RenderOptions) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts.Logger)

	start := time.Now()
	var (
		imageID string
		decoded source.Decoded
	)
	if opts.ImagePath != "" {
		d, err := r.Loader.LoadFile(opts.ImagePath)
		if err != nil {
			return nil, err
		}
		decoded = d
		imageID = "sha256:" + d.Digest
	} else {
		imageID = opts.ImageURL
	}

	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, imageID, opts); ok {
			opts.Logger.Debug("artifact cache hit", "image", imageID, "formats", opts.Formats)
			return &Result{
				Record:    meme.Record{ImageURL: opts.ImageURL, TopText: opts.Top, BottomText: opts.Bottom, Style: &opts.Style},
				Artifacts: artifacts,
				CacheInfo: CacheInfo{RenderHit: true},
			}, nil
		}
	}

	if decoded.Image == nil {
		d, err := r.Loader.Load(ctx, opts.ImageURL).Wait(ctx)
		if err != nil {
			return nil, err
		}
		decoded = d
	}
	fetch := time.Since(start)

	result, err := r.renderDecoded(ctx, decoded, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.FetchTime = fetch

	r.storeArtifacts(ctx, imageID, opts, result.Artifacts)
	return result, nil
}

// Regenerate re-renders a history entry.
func (r *Runner) Regenerate(ctx context.Context, id string, formats ...sink.Format) (*Result, error) {
	rec, err := r.History.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := r.Render(ctx, RenderOptions{
		ImageURL: rec.ImageURL,
		Top:      rec.TopText,
		Bottom:   rec.BottomText,
		Style:    rec.EffectiveStyle(),
		Formats:  formats,
	})
	if err != nil {
		return nil, err
	}
	result.Record = rec
	return result, nil
}

// Thumbnail renders a history entry as a square PNG preview of size
// pixels (DefaultThumbnailSize when size <= 0).
func (r *Runner) Thumbnail(ctx context.Context, id string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	rec, err := r.History.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	opts := RenderOptions{
		ImageURL: rec.ImageURL,
		Top:      rec.TopText,
		Bottom:   rec.BottomText,
		Style:    rec.EffectiveStyle(),
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	key := r.artifactKey(rec.ImageURL, opts, sink.Format(fmt.Sprintf("thumb-%d", size)))
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	decoded, err := r.Loader.Load(ctx, rec.ImageURL).Wait(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.Engine.Render(decoded.Image, rec.TopText, rec.BottomText, opts.Style)
	if err != nil {
		return nil, err
	}
	data, err := sink.RenderPNG(sink.Thumbnail(s.Image(), size))
	if err != nil {
		return nil, err
	}
	_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	return data, nil
}

// cachedArtifacts returns every requested format from the cache, or false
// if any is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, imageID string, opts RenderOptions) (map[sink.Format][]byte, bool) {
	artifacts := make(map[sink.Format][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.artifactKey(imageID, opts, format)
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

func (r *Runner) storeArtifacts(ctx context.Context, imageID string, opts RenderOptions, artifacts map[sink.Format][]byte) {
	for format, data := range artifacts {
		_ = r.Cache.Set(ctx, r.artifactKey(imageID, opts, format), data, cache.TTLArtifact)
	}
}

// artifactKey keys one format of a render, including the font file the
// family currently resolves to.
func (r *Runner) artifactKey(imageID string, opts RenderOptions, format sink.Format) string {
	ko := opts.ArtifactKeyOpts(imageID, format)
	ko.FontSource = r.Engine.FontSource(opts.Style.FontFamily)
	return r.Keyer.ArtifactKey(ko)
}

// renderDecoded composes and exports without touching the artifact cache.
func (r *Runner) renderDecoded(ctx context.Context, decoded source.Decoded, opts RenderOptions) (*Result, error) {
	hooks := observability.Pipeline()
	b := decoded.Image.Bounds()

	hooks.OnRenderStart(ctx, b.Dx(), b.Dy())
	start := time.Now()
	s, err := r.Engine.Render(decoded.Image, opts.Top, opts.Bottom, opts.Style)
	var lines int
	if s != nil {
		lines = len(s.Layout().Lines())
	}
	hooks.OnRenderComplete(ctx, lines, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	result := &Result{
		Record: meme.Record{
			ImageURL:   opts.ImageURL,
			TopText:    opts.Top,
			BottomText: opts.Bottom,
			Style:      &opts.Style,
		},
		Layout:    s.Layout(),
		Image:     s.Image(),
		Artifacts: make(map[sink.Format][]byte, len(opts.Formats)),
	}
	result.Stats.Lines = lines
	result.Stats.RenderTime = time.Since(start)

	exportStart := time.Now()
	for _, format := range opts.Formats {
		fs := time.Now()
		data, err := sink.Encode(format, result.Image, result.Layout)
		hooks.OnExportComplete(ctx, string(format), len(data), time.Since(fs), err)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		result.Artifacts[format] = data
	}
	result.Stats.ExportTime = time.Since(exportStart)

	opts.Logger.Info("rendered meme",
		"size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"lines", lines,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime+result.Stats.ExportTime)

	return result, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var first error
	if r.History != nil {
		first = r.History.Close()
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(l **log.Logger) {
	if *l == nil {
		*l = r.Logger
	}
}
