// Package pipeline provides the meme generation pipeline for memeforge.
//
// This package implements the complete topic → caption + template → render →
// export flow shared by the CLI and the HTTP API. Centralizing it keeps
// validation, caching, history and hooks consistent across entry points.
//
// # Architecture
//
// A generation runs in four stages:
//
//  1. Gather: pick a template image and generate a caption in parallel
//  2. Load: download (cached) and decode the template image
//  3. Render: lay out and draw the captions over a copy of the image
//  4. Export: encode the surface in each requested format
//
// The new meme is then prepended to the history. Renders of existing memes
// (edited text, new style, history entries) skip stage 1 and may be served
// from the artifact cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(pipeline.Deps{
//	    Templates: imgflip.NewClient(c, "", cache.TTLHTTP),
//	    Captions:  caption.NewGatewayClient("", "", apiKey),
//	    History:   store,
//	    Cache:     c,
//	})
//	result, err := runner.Generate(ctx, pipeline.Options{Topic: "golang"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts[sink.FormatPNG]
//
// Re-render an edited meme:
//
//	result, err := runner.Render(ctx, pipeline.RenderOptions{
//	    ImageURL: rec.ImageURL,
//	    Top:      "NEW TOP",
//	    Bottom:   rec.BottomText,
//	    Style:    rec.EffectiveStyle(),
//	})
package pipeline

import (
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/layout"
	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/sink"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// DefaultThumbnailSize is the edge length of history previews in pixels.
const DefaultThumbnailSize = 160

// =============================================================================
// Options - Generation Configuration
// =============================================================================

// Options configures Runner.Generate.
// This struct supports JSON serialization for API requests.
type Options struct {
	Topic      string        `json:"topic"`
	Style      meme.Style    `json:"style"`
	Formats    []sink.Format `json:"formats,omitempty"`
	TemplateID string        `json:"template_id,omitempty"` // fixed template instead of a random one
	ImageURL   string        `json:"image_url,omitempty"`   // fixed image, skips the template source
	Caption    string        `json:"caption,omitempty"`     // fixed caption, skips the generator
	NoHistory  bool          `json:"no_history,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// RenderOptions configures Runner.Render. Exactly one of ImageURL and
// ImagePath must be set.
type RenderOptions struct {
	ImageURL  string        `json:"image_url,omitempty"`
	ImagePath string        `json:"-"`
	Top       string        `json:"top_text"`
	Bottom    string        `json:"bottom_text"`
	Style     meme.Style    `json:"style"`
	Formats   []sink.Format `json:"formats,omitempty"`
	Refresh   bool          `json:"refresh,omitempty"` // skip the artifact cache lookup

	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Record describes the meme. Generate fills every field; Render leaves
	// ID, Topic and Timestamp empty.
	Record meme.Record

	// Layout holds the positioned caption lines. It is empty when every
	// artifact came from the cache.
	Layout layout.Layout

	// Image is the rendered raster, nil on a full cache hit.
	Image image.Image

	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[sink.Format][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Lines       int
	Template    string
	Provider    string
	CaptionTime time.Duration
	FetchTime   time.Duration
	RenderTime  time.Duration
	ExportTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the topic and style and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	o.Topic = errs.NormalizeTopic(o.Topic)
	if err := errs.ValidateTopic(o.Topic); err != nil {
		return err
	}
	if o.ImageURL != "" {
		if err := errs.ValidateURL(o.ImageURL); err != nil {
			return err
		}
	}
	if err := setStyleDefaults(&o.Style); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []sink.Format{sink.FormatPNG}
	}
	return nil
}

// ValidateAndSetDefaults checks the image reference and style and applies
// defaults.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	switch {
	case o.ImageURL == "" && o.ImagePath == "":
		return errs.New(errs.ErrCodeInvalidInput, "image url or path is required")
	case o.ImageURL != "" && o.ImagePath != "":
		return errs.New(errs.ErrCodeInvalidInput, "image url and path are mutually exclusive")
	case o.ImageURL != "":
		if err := errs.ValidateURL(o.ImageURL); err != nil {
			return err
		}
	}
	if err := setStyleDefaults(&o.Style); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []sink.Format{sink.FormatPNG}
	}
	return nil
}

// setStyleDefaults treats a zero Style as DefaultStyle; otherwise only
// unset fields are filled.
func setStyleDefaults(s *meme.Style) error {
	if *s == (meme.Style{}) {
		*s = meme.DefaultStyle()
	}
	*s = s.WithDefaults()
	return s.Validate()
}

// ArtifactKeyOpts returns cache key options for one format. image is the
// URL or, for local files, the content hash.
func (o *RenderOptions) ArtifactKeyOpts(image string, format sink.Format) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Image:       image,
		TopText:     layout.Normalize(o.Top),
		BottomText:  layout.Normalize(o.Bottom),
		FontSize:    o.Style.FontSize,
		FontFamily:  strings.ToLower(o.Style.FontFamily),
		FillColor:   strings.ToUpper(o.Style.FillColor),
		StrokeColor: strings.ToUpper(o.Style.StrokeColor),
		StrokeWidth: o.Style.StrokeWidth,
		Format:      string(format),
	}
}
