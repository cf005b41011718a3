// Package observability lets the application observe what the libraries do
// without the libraries depending on a logging or metrics stack.
//
// Libraries emit events through the current hook sets:
//
//	hooks := observability.Pipeline()
//	hooks.OnRenderStart(ctx, width, height)
//	// ... draw captions ...
//	hooks.OnRenderComplete(ctx, lines, time.Since(start), err)
//
// and the application decides where they go, usually once at startup:
//
//	observability.Install(observability.NewLogHooks(logger))
//
// Until something is installed every event goes to [Noop].
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from meme generation.
type PipelineHooks interface {
	OnFetchStart(ctx context.Context, source string)
	OnFetchComplete(ctx context.Context, source string, size int, duration time.Duration, err error)

	OnCaptionStart(ctx context.Context, provider, topic string)
	OnCaptionComplete(ctx context.Context, provider string, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, width, height int)
	OnRenderComplete(ctx context.Context, lines int, duration time.Duration, err error)

	OnExportComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. kind is the key namespace
// ("http", "image", "artifact").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks receives outgoing HTTP requests. OnError is called instead of
// OnResponse when no response arrived.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, status int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// Hooks is implemented by types that handle every event.
type Hooks interface {
	PipelineHooks
	CacheHooks
	HTTPHooks
}

// Noop discards every event.
type Noop struct{}

func (Noop) OnFetchStart(context.Context, string)                                   {}
func (Noop) OnFetchComplete(context.Context, string, int, time.Duration, error)     {}
func (Noop) OnCaptionStart(context.Context, string, string)                         {}
func (Noop) OnCaptionComplete(context.Context, string, time.Duration, error)        {}
func (Noop) OnRenderStart(context.Context, int, int)                                {}
func (Noop) OnRenderComplete(context.Context, int, time.Duration, error)            {}
func (Noop) OnExportComplete(context.Context, string, int, time.Duration, error)    {}
func (Noop) OnCacheHit(context.Context, string)                                     {}
func (Noop) OnCacheMiss(context.Context, string)                                    {}
func (Noop) OnCacheSet(context.Context, string, int)                                {}
func (Noop) OnRequest(context.Context, string, string, string)                      {}
func (Noop) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (Noop) OnError(context.Context, string, string, string, error)                 {}

var _ Hooks = Noop{}

// registry is swapped as a whole so readers never see a half-updated set.
type registry struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var current atomic.Pointer[registry]

func init() { Reset() }

func update(fn func(r *registry)) {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Install routes every event to h.
func Install(h Hooks) {
	if h == nil {
		return
	}
	current.Store(&registry{pipeline: h, cache: h, http: h})
}

// SetPipelineHooks replaces the pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(r *registry) { r.pipeline = h })
	}
}

// SetCacheHooks replaces the cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks replaces the HTTP hooks. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

// Pipeline returns the current pipeline hooks.
func Pipeline() PipelineHooks { return current.Load().pipeline }

// Cache returns the current cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the current HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset routes every event back to Noop.
func Reset() {
	current.Store(&registry{pipeline: Noop{}, cache: Noop{}, http: Noop{}})
}
