// Package pkg provides the core libraries for memeforge, a meme text layout
// and compositing engine.
//
// # Overview
//
// memeforge takes a base image and a two-part caption and produces a meme:
// classic upper-cased text at the top and bottom of the image, wrapped to the
// image width and drawn with an outline. Captions can be written by hand or
// generated for a topic by a language model, and base images come from the
// imgflip template catalogue, a URL or a local file.
//
// # Architecture
//
// The typical data flow:
//
//	Topic ──▶ [integrations/caption] ──┐
//	                                   ├──▶ [layout] ──▶ [compose] ──▶ [sink]
//	Template ──▶ [source] (decode) ────┘      wrap        draw        png/jpeg/pdf/json
//
// [pipeline] runs these steps with caching and history, and is shared by the
// CLI and the HTTP API in [server].
//
// # Quick Start
//
// Render a caption onto an image:
//
//	import (
//	    "github.com/matzehuels/memeforge/pkg/compose"
//	    "github.com/matzehuels/memeforge/pkg/fonts"
//	    "github.com/matzehuels/memeforge/pkg/meme"
//	    "github.com/matzehuels/memeforge/pkg/sink"
//	)
//
//	engine := compose.NewEngine(fonts.Default())
//	surface, _ := engine.Render(img, "one does not simply", "write a meme engine", meme.DefaultStyle())
//	png, _ := sink.RenderPNG(surface.Image())
//
// Or run the whole pipeline:
//
//	runner := pipeline.NewRunner(pipeline.Deps{Templates: imgflip.NewClient(c, "", cache.TTLHTTP)})
//	defer runner.Close()
//	res, _ := runner.Generate(ctx, pipeline.Options{Topic: "kubernetes"})
//
// # Main Packages
//
// ## Domain
//
// [meme] - Caption style, the style shorthand parser and history records.
//
// [layout] - Word wrapping and line placement. Pure functions over a text
// measurer, so they can be tested without fonts.
//
// [fonts] - Font family resolution against installed fonts, with built-in
// fallbacks.
//
// [compose] - Draws captions onto an image with fill and outline.
//
// [sink] - Export to PNG, JPEG, PDF and a JSON layout dump.
//
// [share] - Share text, hashtags and social intent links.
//
// ## Infrastructure
//
// [source] - Image fetching and decoding, with stale-result tracking for
// interactive editing.
//
// [cache] - Response and render cache backends (file, memory, Redis, null).
//
// [history] - Meme history backends (file, memory, Redis, MongoDB).
//
// [config] - TOML/YAML settings with environment overrides.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// ## External Integrations
//
// [integrations] - Shared HTTP client with retries and size limits.
// [integrations/imgflip] fetches meme templates; [integrations/caption]
// generates captions through an OpenAI-compatible gateway or Gemini.
//
// # Testing
//
//	go test ./pkg/...
//
// [meme]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/meme
// [layout]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/layout
// [fonts]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/fonts
// [compose]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/compose
// [sink]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/sink
// [share]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/share
// [source]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/source
// [cache]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/cache
// [history]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/history
// [config]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/server
// [integrations]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/integrations
// [integrations/imgflip]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/integrations/imgflip
// [integrations/caption]: https://pkg.go.dev/github.com/matzehuels/memeforge/pkg/integrations/caption
package pkg
